package service

import (
	"context"
	stderrors "errors"
	"math"

	"github.com/rs/zerolog"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/logger"
	"gift-store-backend/internal/common/metrics"
	"gift-store-backend/internal/features/ledger/models"
	"gift-store-backend/internal/features/ledger/repository"
)

// Invalidator сбрасывает кэши, зависящие от остатков и покупок
type Invalidator interface {
	InvalidateCatalog(ctx context.Context) error
	InvalidateLeaderboard(ctx context.Context) error
}

type LedgerService interface {
	SettlePurchase(ctx context.Context, s models.Settlement) (*models.Receipt, error)
	PurchaseWithBalance(ctx context.Context, userID, giftID, amount int64) (*models.Receipt, error)
	GrantGift(ctx context.Context, g models.Grant) (*models.Receipt, error)
	TransferGift(ctx context.Context, t models.Transfer) error
	CreditStars(ctx context.Context, t models.TopUp) error
	RecordRefund(ctx context.Context, payer models.UserRef, ref models.PaymentRef) error
	AdjustStock(ctx context.Context, giftID, delta int64) error
	Collection(ctx context.Context, userID int64) ([]*models.CollectionItem, error)
}

type ledgerService struct {
	store repository.Store
	cache Invalidator
	log   zerolog.Logger
}

func NewLedgerService(store repository.Store, cache Invalidator) LedgerService {
	return &ledgerService{
		store: store,
		cache: cache,
		log:   logger.Component("ledger"),
	}
}

// SettlePurchase выдаёт оплаченные подарки покупателю одной транзакцией
func (s *ledgerService) SettlePurchase(ctx context.Context, st models.Settlement) (*models.Receipt, error) {
	if err := validateIssue(st.Payer, st.GiftID, st.Amount); err != nil {
		return nil, err
	}
	if st.StarsSpent < 0 {
		return nil, errors.NewValidationError("stars_spent", "cannot be negative")
	}
	if st.Source == "" {
		st.Source = models.SourceInvoice
	}

	var receipt *models.Receipt
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		userID, err := tx.ResolveUser(ctx, st.Payer)
		if err != nil {
			return err
		}
		receipt, err = s.settle(ctx, tx, userID, st)
		return err
	})

	s.finish(ctx, "settle", err, st.Amount)
	if err != nil {
		return nil, mapError(err, "settle purchase")
	}
	metrics.RecordStarsSettled(st.StarsSpent)
	s.log.Info().
		Int64("user_id", receipt.UserID).
		Int64("gift_id", st.GiftID).
		Int64("amount", st.Amount).
		Int64("stars_spent", st.StarsSpent).
		Str("source", string(st.Source)).
		Msg("Purchase settled")
	return receipt, nil
}

// PurchaseWithBalance покупка за внутренний баланс: цена берётся из каталога внутри транзакции
func (s *ledgerService) PurchaseWithBalance(ctx context.Context, userID, giftID, amount int64) (*models.Receipt, error) {
	if err := validateIssue(models.ByID(userID), giftID, amount); err != nil {
		return nil, err
	}

	var receipt *models.Receipt
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		gift, err := tx.GetGift(ctx, giftID)
		if err != nil {
			return err
		}
		if !gift.IsActive {
			return errors.NewValidationError("gift_id", "gift is not on sale")
		}
		if gift.Price > 0 && amount > math.MaxInt64/gift.Price {
			return errors.NewValidationError("amount", "total price is out of range")
		}
		receipt, err = s.settle(ctx, tx, userID, models.Settlement{
			GiftID:     giftID,
			Amount:     amount,
			StarsSpent: gift.Price * amount,
			Source:     models.SourceBalance,
		})
		return err
	})

	s.finish(ctx, "settle", err, amount)
	if err != nil {
		return nil, mapError(err, "purchase with balance")
	}
	metrics.RecordStarsSettled(receipt.StarsSpent)
	s.log.Info().
		Int64("user_id", userID).
		Int64("gift_id", giftID).
		Int64("amount", amount).
		Int64("stars_spent", receipt.StarsSpent).
		Msg("Purchase paid from balance")
	return receipt, nil
}

func (s *ledgerService) GrantGift(ctx context.Context, g models.Grant) (*models.Receipt, error) {
	if err := validateIssue(g.Recipient, g.GiftID, g.Amount); err != nil {
		return nil, err
	}

	var receipt *models.Receipt
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		userID, err := tx.ResolveUser(ctx, g.Recipient)
		if err != nil {
			return err
		}
		receipt, err = issue(ctx, tx, userID, g.GiftID, g.Amount, 0, models.SourceGrant)
		return err
	})

	s.finish(ctx, "grant", err, g.Amount)
	if err != nil {
		return nil, mapError(err, "grant gift")
	}
	s.log.Info().Int64("user_id", receipt.UserID).Int64("gift_id", g.GiftID).Int64("amount", g.Amount).Msg("Gift granted")
	return receipt, nil
}

// TransferGift переносит подарки между пользователями.
// Без отправителя единицы выдаются со склада так же, как при GrantGift.
func (s *ledgerService) TransferGift(ctx context.Context, t models.Transfer) error {
	if t.To.IsZero() {
		return errors.NewValidationError("to", "recipient is required")
	}
	if t.From != nil && t.From.IsZero() {
		t.From = nil
	}
	if err := validateIssue(t.To, t.GiftID, t.Amount); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		toID, err := tx.ResolveUser(ctx, t.To)
		if err != nil {
			if stderrors.Is(err, repository.ErrUserNotFound) {
				return errors.New(errors.ErrCodeUserNotFound, "Recipient not found")
			}
			return err
		}

		if t.From == nil {
			_, err = issue(ctx, tx, toID, t.GiftID, t.Amount, 0, models.SourceTransfer)
			return err
		}

		fromID, err := tx.ResolveUser(ctx, *t.From)
		if err != nil {
			if stderrors.Is(err, repository.ErrUserNotFound) {
				return errors.New(errors.ErrCodeUserNotFound, "Sender not found")
			}
			return err
		}
		if fromID == toID {
			return errors.NewValidationError("to", "sender and recipient must differ")
		}

		if err := tx.DebitHolding(ctx, fromID, t.GiftID, t.Amount); err != nil {
			return err
		}
		return tx.CreditHolding(ctx, toID, t.GiftID, t.Amount)
	})

	s.finish(ctx, "transfer", err, t.Amount)
	if err != nil {
		return mapError(err, "transfer gift")
	}
	s.log.Info().
		Bool("from_stock", t.From == nil).
		Int64("gift_id", t.GiftID).
		Int64("amount", t.Amount).
		Msg("Gift transferred")
	return nil
}

// CreditStars зачисляет пополнение баланса; платёж записывается в той же транзакции
func (s *ledgerService) CreditStars(ctx context.Context, t models.TopUp) error {
	if t.User.IsZero() {
		return errors.NewValidationError("user_id", "must be a positive integer")
	}
	if t.Stars < 1 {
		return errors.NewValidationError("stars", "must be at least 1")
	}

	var userID int64
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		userID, err = tx.ResolveUser(ctx, t.User)
		if err != nil {
			return err
		}
		if t.Payment != nil {
			if err := tx.RecordPayment(ctx, userID, *t.Payment); err != nil {
				return err
			}
		}
		return tx.CreditStars(ctx, userID, t.Stars)
	})

	metrics.RecordLedger("topup", err, t.Stars)
	if err != nil {
		return mapError(err, "credit stars")
	}
	s.log.Info().Int64("user_id", userID).Int64("stars", t.Stars).Msg("Stars credited")
	return nil
}

// RecordRefund закрывает payload отдельной транзакцией до возврата денег,
// повторная доставка того же платежа получит ErrCodeDuplicatePayment
func (s *ledgerService) RecordRefund(ctx context.Context, payer models.UserRef, ref models.PaymentRef) error {
	if payer.IsZero() {
		return errors.NewValidationError("user_id", "must be a positive integer")
	}
	if ref.Payload == "" {
		return errors.NewValidationError("invoice_payload", "must not be empty")
	}
	ref.Status = models.PaymentStatusRefunded

	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		userID, err := tx.ResolveUser(ctx, payer)
		if err != nil {
			return err
		}
		return tx.RecordPayment(ctx, userID, ref)
	})

	metrics.RecordLedger("refund", err, 0)
	if err != nil {
		return mapError(err, "record refund")
	}
	s.log.Info().Str("payload", ref.Payload).Int64("total_amount", ref.TotalAmount).Msg("Refunded payment recorded")
	return nil
}

func (s *ledgerService) AdjustStock(ctx context.Context, giftID, delta int64) error {
	if giftID <= 0 {
		return errors.NewValidationError("gift_id", "must be a positive integer")
	}
	if delta == 0 {
		return errors.NewValidationError("delta", "must not be zero")
	}

	var available int64
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		available, err = tx.AdjustStock(ctx, giftID, delta)
		return err
	})

	units := delta
	if units < 0 {
		units = -units
	}
	metrics.RecordLedger("adjust_stock", err, units)
	if err != nil {
		return mapError(err, "adjust stock")
	}
	s.invalidate(ctx, false)
	s.log.Info().Int64("gift_id", giftID).Int64("delta", delta).Int64("available", available).Msg("Stock adjusted")
	return nil
}

func (s *ledgerService) Collection(ctx context.Context, userID int64) ([]*models.CollectionItem, error) {
	if userID <= 0 {
		return nil, errors.NewValidationError("user_id", "must be a positive integer")
	}
	items, err := s.store.Collection(ctx, userID)
	if err != nil {
		return nil, errors.NewDatabaseError("load collection", err)
	}
	return items, nil
}

// settle: платёж, выдача со склада, счётчики покупателя
func (s *ledgerService) settle(ctx context.Context, tx repository.Tx, userID int64, st models.Settlement) (*models.Receipt, error) {
	if st.Payment != nil {
		if err := tx.RecordPayment(ctx, userID, *st.Payment); err != nil {
			return nil, err
		}
	}

	receipt, err := issue(ctx, tx, userID, st.GiftID, st.Amount, st.StarsSpent, st.Source)
	if err != nil {
		return nil, err
	}

	if err := tx.IncrementBoughtGifts(ctx, userID, st.Amount); err != nil {
		return nil, err
	}
	if st.Source == models.SourceBalance && st.StarsSpent > 0 {
		if err := tx.DebitStars(ctx, userID, st.StarsSpent); err != nil {
			return nil, err
		}
	}
	return receipt, nil
}

// issue is the write set shared by settlement, grant and transfer from stock.
func issue(ctx context.Context, tx repository.Tx, userID, giftID, amount, stars int64, source models.Source) (*models.Receipt, error) {
	if err := tx.DecrementStock(ctx, giftID, amount); err != nil {
		return nil, err
	}
	if err := tx.CreditHolding(ctx, userID, giftID, amount); err != nil {
		return nil, err
	}
	p := &models.Purchase{
		UserID:     userID,
		GiftID:     giftID,
		Amount:     amount,
		StarsSpent: stars,
		Source:     source,
	}
	if err := tx.InsertPurchase(ctx, p); err != nil {
		return nil, err
	}
	return &models.Receipt{UserID: userID, GiftID: giftID, Amount: amount, StarsSpent: stars}, nil
}

func (s *ledgerService) finish(ctx context.Context, op string, err error, units int64) {
	metrics.RecordLedger(op, err, units)
	if err == nil {
		s.invalidate(ctx, true)
	}
}

func (s *ledgerService) invalidate(ctx context.Context, leaderboard bool) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate catalog cache")
	}
	if !leaderboard {
		return
	}
	if err := s.cache.InvalidateLeaderboard(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate leaderboard cache")
	}
}

func validateIssue(user models.UserRef, giftID, amount int64) error {
	if user.IsZero() {
		return errors.NewValidationError("user_id", "must be a positive integer")
	}
	if giftID <= 0 {
		return errors.NewValidationError("gift_id", "must be a positive integer")
	}
	if amount < 1 {
		return errors.NewValidationError("amount", "must be at least 1")
	}
	return nil
}

func mapError(err error, op string) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case stderrors.Is(err, repository.ErrGiftNotFound):
		return errors.New(errors.ErrCodeGiftNotFound, "Gift not found")
	case stderrors.Is(err, repository.ErrUserNotFound):
		return errors.New(errors.ErrCodeUserNotFound, "User not found")
	case stderrors.Is(err, repository.ErrInsufficientStock):
		return errors.NewConflictError(errors.ErrCodeInsufficientStock, "Insufficient availability")
	case stderrors.Is(err, repository.ErrStockOutOfRange):
		return errors.NewConflictError(errors.ErrCodeInsufficientStock, "Stock must stay between 0 and total_quantity")
	case stderrors.Is(err, repository.ErrInsufficientHoldings):
		return errors.NewConflictError(errors.ErrCodeInsufficientHoldings, "Insufficient sender holdings")
	case stderrors.Is(err, repository.ErrInsufficientStars):
		return errors.NewConflictError(errors.ErrCodeInsufficientStars, "Insufficient stars balance")
	case stderrors.Is(err, repository.ErrDuplicatePayment):
		return errors.NewConflictError(errors.ErrCodeDuplicatePayment, "Payment already processed")
	default:
		return errors.NewDatabaseError(op, err)
	}
}
