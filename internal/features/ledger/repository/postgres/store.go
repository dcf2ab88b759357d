package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gift-store-backend/internal/features/ledger/models"
	"gift-store-backend/internal/features/ledger/repository"
	"gift-store-backend/internal/platform/postgres"
)

type postgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) repository.Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Collection возвращает подарки пользователя с ненулевым количеством
func (s *postgresStore) Collection(ctx context.Context, userID int64) ([]*models.CollectionItem, error) {
	query := `
		SELECT ug.gift_id, ug.amount, g.name, g.description, g.price, g.sticker_url,
			g.frame_type, g.ribbon_text, g.ribbon_color
		FROM user_gifts ug
		JOIN gifts g ON g.id = ug.gift_id
		WHERE ug.user_id = $1 AND ug.amount > 0
		ORDER BY ug.gift_id ASC`

	items := make([]*models.CollectionItem, 0)
	if err := s.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	return items, nil
}

type postgresTx struct {
	tx *sqlx.Tx
}

func (t *postgresTx) ResolveUser(ctx context.Context, ref models.UserRef) (int64, error) {
	var (
		id  int64
		err error
	)
	switch {
	case ref.ID > 0:
		err = t.tx.GetContext(ctx, &id, `SELECT id FROM users WHERE id = $1`, ref.ID)
	case ref.TgID > 0:
		err = t.tx.GetContext(ctx, &id, `SELECT id FROM users WHERE tg_id = $1`, ref.TgID)
	default:
		return 0, repository.ErrUserNotFound
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve user: %w", err)
	}
	return id, nil
}

func (t *postgresTx) GetGift(ctx context.Context, giftID int64) (*models.GiftStock, error) {
	var g models.GiftStock
	err := t.tx.GetContext(ctx, &g,
		`SELECT id, price, total_quantity, available_quantity, is_active FROM gifts WHERE id = $1`, giftID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrGiftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}
	return &g, nil
}

func (t *postgresTx) RecordPayment(ctx context.Context, userID int64, ref models.PaymentRef) error {
	query := `
		INSERT INTO payments (invoice_payload, kind, user_id, total_amount, telegram_charge_id, status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		ON CONFLICT (invoice_payload) DO NOTHING`

	result, err := t.tx.ExecContext(ctx, query,
		ref.Payload, ref.Kind, userID, ref.TotalAmount, ref.ChargeID, ref.StatusOrDefault())
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return requireRow(result, repository.ErrDuplicatePayment)
}

// DecrementStock уменьшает остаток только если его хватает
func (t *postgresTx) DecrementStock(ctx context.Context, giftID, amount int64) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE gifts SET available_quantity = available_quantity - $1, updated_at = NOW()
		WHERE id = $2 AND available_quantity >= $1`, amount, giftID)
	if err != nil {
		return mapCheckError(err, "decrement stock")
	}
	if err := requireRow(result, repository.ErrInsufficientStock); err != nil {
		return t.missingGiftOr(ctx, giftID, err)
	}
	return nil
}

func (t *postgresTx) AdjustStock(ctx context.Context, giftID, delta int64) (int64, error) {
	var available int64
	err := t.tx.GetContext(ctx, &available, `
		UPDATE gifts SET available_quantity = available_quantity + $1, updated_at = NOW()
		WHERE id = $2 AND available_quantity + $1 BETWEEN 0 AND total_quantity
		RETURNING available_quantity`, delta, giftID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, t.missingGiftOr(ctx, giftID, repository.ErrStockOutOfRange)
	}
	if err != nil {
		return 0, mapCheckError(err, "adjust stock")
	}
	return available, nil
}

func (t *postgresTx) CreditHolding(ctx context.Context, userID, giftID, amount int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO user_gifts (user_id, gift_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, gift_id) DO UPDATE SET amount = user_gifts.amount + EXCLUDED.amount`,
		userID, giftID, amount)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return repository.ErrGiftNotFound
		}
		return fmt.Errorf("failed to credit holding: %w", err)
	}
	return nil
}

// DebitHolding списывает у отправителя; отсутствующая строка равна нулю
func (t *postgresTx) DebitHolding(ctx context.Context, userID, giftID, amount int64) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE user_gifts SET amount = amount - $1
		WHERE user_id = $2 AND gift_id = $3 AND amount >= $1`, amount, userID, giftID)
	if err != nil {
		return mapCheckError(err, "debit holding")
	}
	return requireRow(result, repository.ErrInsufficientHoldings)
}

func (t *postgresTx) InsertPurchase(ctx context.Context, p *models.Purchase) error {
	err := t.tx.GetContext(ctx, p, `
		INSERT INTO purchases (user_id, gift_id, amount, stars_spent, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, gift_id, amount, stars_spent, source, purchased_at`,
		p.UserID, p.GiftID, p.Amount, p.StarsSpent, p.Source)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}
	return nil
}

func (t *postgresTx) IncrementBoughtGifts(ctx context.Context, userID, amount int64) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE users SET bought_gifts = bought_gifts + $1 WHERE id = $2`, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to update bought_gifts: %w", err)
	}
	return requireRow(result, repository.ErrUserNotFound)
}

func (t *postgresTx) DebitStars(ctx context.Context, userID, stars int64) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE users SET stars = stars - $1 WHERE id = $2 AND stars >= $1`, stars, userID)
	if err != nil {
		return mapCheckError(err, "debit stars")
	}
	return requireRow(result, repository.ErrInsufficientStars)
}

func (t *postgresTx) CreditStars(ctx context.Context, userID, stars int64) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE users SET stars = stars + $1 WHERE id = $2`, stars, userID)
	if err != nil {
		return fmt.Errorf("failed to credit stars: %w", err)
	}
	return requireRow(result, repository.ErrUserNotFound)
}

// missingGiftOr отличает отсутствующий подарок от нехватки остатка
func (t *postgresTx) missingGiftOr(ctx context.Context, giftID int64, err error) error {
	var exists bool
	if qerr := t.tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM gifts WHERE id = $1)`, giftID); qerr != nil {
		return fmt.Errorf("failed to check gift: %w", qerr)
	}
	if !exists {
		return repository.ErrGiftNotFound
	}
	return err
}

func requireRow(result sql.Result, errNone error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errNone
	}
	return nil
}

// mapCheckError переводит нарушения CHECK-ограничений в ошибки учёта
func mapCheckError(err error, op string) error {
	if ok, constraint := postgres.IsCheckViolation(err); ok {
		switch constraint {
		case "gifts_available_range":
			return repository.ErrInsufficientStock
		case "user_gifts_amount_non_negative":
			return repository.ErrInsufficientHoldings
		case "users_stars_check":
			return repository.ErrInsufficientStars
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
