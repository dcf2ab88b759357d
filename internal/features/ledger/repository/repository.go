package repository

import (
	"context"
	"errors"

	"gift-store-backend/internal/features/ledger/models"
)

var (
	ErrGiftNotFound         = errors.New("gift not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInsufficientStock    = errors.New("insufficient availability")
	ErrInsufficientHoldings = errors.New("insufficient sender holdings")
	ErrInsufficientStars    = errors.New("insufficient stars balance")
	ErrDuplicatePayment     = errors.New("payment already processed")
	ErrStockOutOfRange      = errors.New("stock must stay between 0 and total_quantity")
)

// Tx is one ledger transaction. Every decrement is conditional and fails with a
// sentinel error instead of going below zero; the caller must then abort.
type Tx interface {
	ResolveUser(ctx context.Context, ref models.UserRef) (int64, error)
	GetGift(ctx context.Context, giftID int64) (*models.GiftStock, error)

	// RecordPayment вставляет платёж; повторный payload даёт ErrDuplicatePayment
	RecordPayment(ctx context.Context, userID int64, ref models.PaymentRef) error

	DecrementStock(ctx context.Context, giftID, amount int64) error
	AdjustStock(ctx context.Context, giftID, delta int64) (int64, error)

	CreditHolding(ctx context.Context, userID, giftID, amount int64) error
	DebitHolding(ctx context.Context, userID, giftID, amount int64) error

	InsertPurchase(ctx context.Context, p *models.Purchase) error
	IncrementBoughtGifts(ctx context.Context, userID, amount int64) error
	DebitStars(ctx context.Context, userID, stars int64) error
	CreditStars(ctx context.Context, userID, stars int64) error
}

// Store runs fn in a single transaction: committed when fn returns nil,
// rolled back otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Collection(ctx context.Context, userID int64) ([]*models.CollectionItem, error)
}
