package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gift-store-backend/internal/features/stats/models"
	"gift-store-backend/internal/features/stats/repository"
)

// $1 всегда граница окна; NULL означает всё время
const purchaseTotalsCTE = `
	WITH totals AS (
		SELECT user_id, SUM(stars_spent) AS stars, SUM(amount) AS gifts
		FROM purchases
		WHERE ($1::timestamptz IS NULL OR purchased_at >= $1)
		GROUP BY user_id
	)`

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) repository.StatsRepository {
	return &postgresRepository{db: db}
}

func since(w models.Window) sql.NullTime {
	if w.IsAll() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: w.Since, Valid: true}
}

// TopBuyers ранжирует по сумме потраченных звёзд, при равенстве выше более ранний пользователь
func (r *postgresRepository) TopBuyers(ctx context.Context, w models.Window, limit int) ([]models.BuyerTotal, error) {
	query := purchaseTotalsCTE + `
	SELECT t.user_id, u.username, u.avatar_url, u.tg_id::text AS tg_id, t.stars, t.gifts
	FROM totals t
	JOIN users u ON u.id = t.user_id
	ORDER BY t.stars DESC, t.user_id ASC
	LIMIT $2`

	rows := make([]models.BuyerTotal, 0)
	if err := r.db.SelectContext(ctx, &rows, query, since(w), limit); err != nil {
		return nil, fmt.Errorf("failed to select top buyers: %w", err)
	}
	return rows, nil
}

func (r *postgresRepository) Rank(ctx context.Context, w models.Window, userID int64) (*models.BuyerRank, error) {
	query := purchaseTotalsCTE + `,
	ranked AS (
		SELECT user_id, stars, gifts, ROW_NUMBER() OVER (ORDER BY stars DESC, user_id ASC) AS place
		FROM totals
	)
	SELECT place, stars, gifts FROM ranked WHERE user_id = $2`

	var rank models.BuyerRank
	if err := r.db.GetContext(ctx, &rank, query, since(w), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.BuyerRank{}, nil
		}
		return nil, fmt.Errorf("failed to rank buyer: %w", err)
	}
	return &rank, nil
}

func (r *postgresRepository) UserByTgID(ctx context.Context, tgID int64) (*models.UserCard, error) {
	var u models.UserCard
	query := `SELECT id, username, avatar_url FROM users WHERE tg_id = $1`
	if err := r.db.GetContext(ctx, &u, query, tgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by tg_id: %w", err)
	}
	return &u, nil
}

func (r *postgresRepository) PurchaseTotals(ctx context.Context, w models.Window) (*models.PurchaseTotals, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0) AS gifts_purchased, COALESCE(SUM(stars_spent), 0) AS stars_spent
		FROM purchases
		WHERE ($1::timestamptz IS NULL OR purchased_at >= $1)`

	var totals models.PurchaseTotals
	if err := r.db.GetContext(ctx, &totals, query, since(w)); err != nil {
		return nil, fmt.Errorf("failed to sum purchases: %w", err)
	}
	return &totals, nil
}

func (r *postgresRepository) CountUsers(ctx context.Context, w models.Window) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM users WHERE ($1::timestamptz IS NULL OR registered_at >= $1)`
	if err := r.db.GetContext(ctx, &n, query, since(w)); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) FirstRegistration(ctx context.Context) (*time.Time, error) {
	var first sql.NullTime
	if err := r.db.GetContext(ctx, &first, `SELECT MIN(registered_at) FROM users`); err != nil {
		return nil, fmt.Errorf("failed to get first registration: %w", err)
	}
	if !first.Valid {
		return nil, nil
	}
	return &first.Time, nil
}
