// Package memory is an in-process ledger store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gift-store-backend/internal/features/ledger/models"
	"gift-store-backend/internal/features/ledger/repository"
)

type user struct {
	id          int64
	tgID        int64
	stars       int64
	boughtGifts int64
}

type gift struct {
	stock models.GiftStock
	name  string
}

type holdingKey struct {
	userID int64
	giftID int64
}

// Store keeps ledger state in maps. Transactions hold the write lock for their
// whole duration, and a failed transaction restores a snapshot taken at start.
type Store struct {
	mu        sync.RWMutex
	users     map[int64]*user
	gifts     map[int64]*gift
	holdings  map[holdingKey]int64
	purchases []models.Purchase
	payments  map[string]models.PaymentRef
	faults    map[string]error
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]*user),
		gifts:    make(map[int64]*gift),
		holdings: make(map[holdingKey]int64),
		payments: make(map[string]models.PaymentRef),
		faults:   make(map[string]error),
	}
}

// AddUser registers a user with a starting balance.
func (s *Store) AddUser(id, tgID, stars int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &user{id: id, tgID: tgID, stars: stars}
}

// AddGift registers a catalog entry.
func (s *Store) AddGift(g models.GiftStock, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gifts[g.ID] = &gift{stock: g, name: name}
}

func (s *Store) SetHolding(userID, giftID, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings[holdingKey{userID, giftID}] = amount
}

// FailOn makes the named Tx method return err, e.g. "InsertPurchase".
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = err
}

func (s *Store) Available(giftID int64) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.gifts[giftID]; ok {
		return g.stock.AvailableQuantity
	}
	return 0
}

func (s *Store) Stars(userID int64) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return u.stars
	}
	return 0
}

func (s *Store) BoughtGifts(userID int64) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return u.boughtGifts
	}
	return 0
}

func (s *Store) Purchases() []models.Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Purchase(nil), s.purchases...)
}

// Payment returns the recorded payment for payload.
func (s *Store) Payment(payload string) (models.PaymentRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.payments[payload]
	return ref, ok
}

func (s *Store) WithTx(_ context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memoryTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) Collection(_ context.Context, userID int64) ([]*models.CollectionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*models.CollectionItem, 0)
	for k, amount := range s.holdings {
		if k.userID != userID || amount <= 0 {
			continue
		}
		g, ok := s.gifts[k.giftID]
		if !ok {
			continue
		}
		items = append(items, &models.CollectionItem{
			GiftID:    k.giftID,
			Amount:    amount,
			Name:      g.name,
			Price:     g.stock.Price,
			FrameType: "default",
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].GiftID < items[j].GiftID })
	return items, nil
}

func (s *Store) Holding(userID, giftID int64) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.holdings[holdingKey{userID, giftID}]
}

type snapshot struct {
	users     map[int64]user
	gifts     map[int64]gift
	holdings  map[holdingKey]int64
	purchases []models.Purchase
	payments  map[string]models.PaymentRef
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:     make(map[int64]user, len(s.users)),
		gifts:     make(map[int64]gift, len(s.gifts)),
		holdings:  make(map[holdingKey]int64, len(s.holdings)),
		purchases: append([]models.Purchase(nil), s.purchases...),
		payments:  make(map[string]models.PaymentRef, len(s.payments)),
	}
	for k, v := range s.users {
		snap.users[k] = *v
	}
	for k, v := range s.gifts {
		snap.gifts[k] = *v
	}
	for k, v := range s.holdings {
		snap.holdings[k] = v
	}
	for k, v := range s.payments {
		snap.payments[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = make(map[int64]*user, len(snap.users))
	for k, v := range snap.users {
		u := v
		s.users[k] = &u
	}
	s.gifts = make(map[int64]*gift, len(snap.gifts))
	for k, v := range snap.gifts {
		g := v
		s.gifts[k] = &g
	}
	s.holdings = snap.holdings
	s.purchases = snap.purchases
	s.payments = snap.payments
}

// memoryTx работает под блокировкой, взятой в WithTx
type memoryTx struct {
	s *Store
}

func (t *memoryTx) fault(method string) error {
	return t.s.faults[method]
}

func (t *memoryTx) ResolveUser(_ context.Context, ref models.UserRef) (int64, error) {
	if err := t.fault("ResolveUser"); err != nil {
		return 0, err
	}
	if ref.ID > 0 {
		if _, ok := t.s.users[ref.ID]; ok {
			return ref.ID, nil
		}
		return 0, repository.ErrUserNotFound
	}
	if ref.TgID > 0 {
		for _, u := range t.s.users {
			if u.tgID == ref.TgID {
				return u.id, nil
			}
		}
	}
	return 0, repository.ErrUserNotFound
}

func (t *memoryTx) GetGift(_ context.Context, giftID int64) (*models.GiftStock, error) {
	g, ok := t.s.gifts[giftID]
	if !ok {
		return nil, repository.ErrGiftNotFound
	}
	stock := g.stock
	return &stock, nil
}

func (t *memoryTx) RecordPayment(_ context.Context, _ int64, ref models.PaymentRef) error {
	if err := t.fault("RecordPayment"); err != nil {
		return err
	}
	if _, ok := t.s.payments[ref.Payload]; ok {
		return repository.ErrDuplicatePayment
	}
	t.s.payments[ref.Payload] = ref
	return nil
}

func (t *memoryTx) DecrementStock(_ context.Context, giftID, amount int64) error {
	if err := t.fault("DecrementStock"); err != nil {
		return err
	}
	g, ok := t.s.gifts[giftID]
	if !ok {
		return repository.ErrGiftNotFound
	}
	if g.stock.AvailableQuantity < amount {
		return repository.ErrInsufficientStock
	}
	g.stock.AvailableQuantity -= amount
	return nil
}

func (t *memoryTx) AdjustStock(_ context.Context, giftID, delta int64) (int64, error) {
	g, ok := t.s.gifts[giftID]
	if !ok {
		return 0, repository.ErrGiftNotFound
	}
	next := g.stock.AvailableQuantity + delta
	if next < 0 || next > g.stock.TotalQuantity {
		return 0, repository.ErrStockOutOfRange
	}
	g.stock.AvailableQuantity = next
	return next, nil
}

func (t *memoryTx) CreditHolding(_ context.Context, userID, giftID, amount int64) error {
	if err := t.fault("CreditHolding"); err != nil {
		return err
	}
	if _, ok := t.s.gifts[giftID]; !ok {
		return repository.ErrGiftNotFound
	}
	t.s.holdings[holdingKey{userID, giftID}] += amount
	return nil
}

func (t *memoryTx) DebitHolding(_ context.Context, userID, giftID, amount int64) error {
	k := holdingKey{userID, giftID}
	if t.s.holdings[k] < amount {
		return repository.ErrInsufficientHoldings
	}
	t.s.holdings[k] -= amount
	return nil
}

func (t *memoryTx) InsertPurchase(_ context.Context, p *models.Purchase) error {
	if err := t.fault("InsertPurchase"); err != nil {
		return err
	}
	p.ID = int64(len(t.s.purchases) + 1)
	p.PurchasedAt = time.Now()
	t.s.purchases = append(t.s.purchases, *p)
	return nil
}

func (t *memoryTx) IncrementBoughtGifts(_ context.Context, userID, amount int64) error {
	u, ok := t.s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.boughtGifts += amount
	return nil
}

func (t *memoryTx) DebitStars(_ context.Context, userID, stars int64) error {
	u, ok := t.s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if u.stars < stars {
		return repository.ErrInsufficientStars
	}
	u.stars -= stars
	return nil
}

func (t *memoryTx) CreditStars(_ context.Context, userID, stars int64) error {
	u, ok := t.s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.stars += stars
	return nil
}
