package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gift-store-backend/internal/features/ledger/models"
	"gift-store-backend/internal/features/ledger/repository"
)

func newMock(t *testing.T) (repository.Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(sqlx.NewDb(db, "sqlmock")), mock
}

func TestWithTx_CommitsIssue(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE gifts SET available_quantity = available_quantity - \$1`).
		WithArgs(int64(2), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_gifts .* ON CONFLICT \(user_id, gift_id\) DO UPDATE`).
		WithArgs(int64(42), int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO purchases`).
		WithArgs(int64(42), int64(1), int64(2), int64(0), models.SourceGrant).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "gift_id", "amount", "stars_spent", "source", "purchased_at"}).
			AddRow(10, 42, 1, 2, 0, "grant", time.Now()))
	mock.ExpectCommit()

	var p models.Purchase
	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		ctx := context.Background()
		if err := tx.DecrementStock(ctx, 1, 2); err != nil {
			return err
		}
		if err := tx.CreditHolding(ctx, 42, 1, 2); err != nil {
			return err
		}
		p = models.Purchase{UserID: 42, GiftID: 1, Amount: 2, Source: models.SourceGrant}
		return tx.InsertPurchase(ctx, &p)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_Insufficient(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE gifts SET available_quantity`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.DecrementStock(context.Background(), 2, 1)
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_GiftMissing(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE gifts SET available_quantity`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.DecrementStock(context.Background(), 9, 1)
	})
	assert.ErrorIs(t, err, repository.ErrGiftNotFound)
}

func TestRecordPayment_Duplicate(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO payments .* ON CONFLICT \(invoice_payload\) DO NOTHING`).
		WithArgs("gift_1_1", models.PaymentKindGift, int64(7), int64(100), "charge", models.PaymentStatusSettled).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.RecordPayment(context.Background(), 7, models.PaymentRef{
			Payload: "gift_1_1", Kind: models.PaymentKindGift, TotalAmount: 100, ChargeID: "charge",
		})
	})
	assert.ErrorIs(t, err, repository.ErrDuplicatePayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebitHolding_Insufficient(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE user_gifts SET amount = amount - \$1`).
		WithArgs(int64(5), int64(1), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.DebitHolding(context.Background(), 1, 1, 5)
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientHoldings)
}

func TestDebitStars_CheckViolationBackstop(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET stars = stars - \$1`).
		WillReturnError(&pq.Error{Code: "23514", Constraint: "users_stars_check"})
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.DebitStars(context.Background(), 1, 100)
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientStars)
}

func TestAdjustStock_OutOfRange(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE gifts SET available_quantity = available_quantity \+ \$1`).
		WithArgs(int64(1), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"available_quantity"}))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		_, err := tx.AdjustStock(context.Background(), 3, 1)
		return err
	})
	assert.ErrorIs(t, err, repository.ErrStockOutOfRange)
}

func TestResolveUser(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE tg_id = \$1`).WithArgs(int64(777)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT id FROM users WHERE id = \$1`).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		id, err := tx.ResolveUser(context.Background(), models.ByTgID(777))
		require.NoError(t, err)
		assert.Equal(t, int64(3), id)

		_, err = tx.ResolveUser(context.Background(), models.UserRef{ID: 4, TgID: 777})
		return err
	})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollection(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(`FROM user_gifts ug\s+JOIN gifts g ON g.id = ug.gift_id\s+WHERE ug.user_id = \$1 AND ug.amount > 0`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"gift_id", "amount", "name", "description", "price", "sticker_url",
			"frame_type", "ribbon_text", "ribbon_color"}).
			AddRow(2, 3, "Castle", nil, 50, nil, "default", nil, nil))

	items, err := store.Collection(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].Amount)
}
