package repository

import (
	"context"
	"errors"
	"time"

	"gift-store-backend/internal/features/stats/models"
)

var ErrUserNotFound = errors.New("user not found")

// StatsRepository только читает; все агрегаты считаются по purchases и users
type StatsRepository interface {
	TopBuyers(ctx context.Context, w models.Window, limit int) ([]models.BuyerTotal, error)
	Rank(ctx context.Context, w models.Window, userID int64) (*models.BuyerRank, error)
	UserByTgID(ctx context.Context, tgID int64) (*models.UserCard, error)
	PurchaseTotals(ctx context.Context, w models.Window) (*models.PurchaseTotals, error)
	CountUsers(ctx context.Context, w models.Window) (int64, error)
	// FirstRegistration returns nil when there are no users yet.
	FirstRegistration(ctx context.Context) (*time.Time, error)
}
