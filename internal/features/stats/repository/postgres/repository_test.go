package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gift-store-backend/internal/features/stats/models"
	"gift-store-backend/internal/features/stats/repository"
)

func newMock(t *testing.T) (repository.StatsRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestTopBuyers_AllTime(t *testing.T) {
	repo, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"user_id", "username", "avatar_url", "tg_id", "stars", "gifts"}).
		AddRow(2, "bob", nil, "222", 900, 3).
		AddRow(1, nil, nil, "111", 100, 1)
	mock.ExpectQuery(`ORDER BY t.stars DESC, t.user_id ASC\s+LIMIT \$2`).
		WithArgs(nil, 100).
		WillReturnRows(rows)

	top, err := repo.TopBuyers(context.Background(), models.Window{}, 100)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(2), top[0].UserID)
	assert.Equal(t, "bob", *top[0].Username)
	assert.Equal(t, "222", *top[0].TgID)
	assert.Nil(t, top[1].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopBuyers_WeekWindow(t *testing.T) {
	repo, mock := newMock(t)
	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local)

	mock.ExpectQuery(`purchased_at >= \$1`).
		WithArgs(monday, 10).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "avatar_url", "tg_id", "stars", "gifts"}))

	top, err := repo.TopBuyers(context.Background(), models.Window{Since: monday}, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRank(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`ROW_NUMBER\(\) OVER \(ORDER BY stars DESC, user_id ASC\)`).
		WithArgs(nil, int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"place", "stars", "gifts"}).AddRow(3, 250, 2))

	rank, err := repo.Rank(context.Background(), models.Window{}, 7)
	require.NoError(t, err)
	require.NotNil(t, rank.Place)
	assert.Equal(t, int64(3), *rank.Place)
	assert.Equal(t, int64(250), rank.Stars)
}

func TestRank_NotABuyer(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`FROM ranked WHERE user_id = \$2`).
		WithArgs(nil, int64(7)).
		WillReturnError(sql.ErrNoRows)

	rank, err := repo.Rank(context.Background(), models.Window{}, 7)
	require.NoError(t, err)
	assert.Nil(t, rank.Place)
	assert.Zero(t, rank.Stars)
	assert.Zero(t, rank.Gifts)
}

func TestUserByTgID_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`FROM users WHERE tg_id = \$1`).WithArgs(int64(555)).WillReturnError(sql.ErrNoRows)

	_, err := repo.UserByTgID(context.Background(), 555)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestAggregates(t *testing.T) {
	repo, mock := newMock(t)
	today := time.Date(2024, 6, 5, 0, 0, 0, 0, time.Local)

	mock.ExpectQuery(`COALESCE\(SUM\(amount\), 0\) AS gifts_purchased`).
		WithArgs(today).
		WillReturnRows(sqlmock.NewRows([]string{"gifts_purchased", "stars_spent"}).AddRow(4, 1200))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WithArgs(nil).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	totals, err := repo.PurchaseTotals(context.Background(), models.Window{Since: today})
	require.NoError(t, err)
	assert.Equal(t, int64(4), totals.GiftsPurchased)
	assert.Equal(t, int64(1200), totals.StarsSpent)

	n, err := repo.CountUsers(context.Background(), models.Window{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFirstRegistration(t *testing.T) {
	repo, mock := newMock(t)
	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT MIN\(registered_at\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"min"}).AddRow(first))
	mock.ExpectQuery(`SELECT MIN\(registered_at\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"min"}).AddRow(nil))

	got, err := repo.FirstRegistration(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(first))

	got, err = repo.FirstRegistration(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}
