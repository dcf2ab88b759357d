package repository

import (
	"context"
	"errors"

	"gift-store-backend/internal/features/gift/models"
)

var (
	ErrGiftNotFound        = errors.New("gift not found")
	ErrGiftNameTaken       = errors.New("gift with this name already exists")
	ErrGiftInUse           = errors.New("gift has holdings or purchases")
	ErrTotalBelowAvailable = errors.New("total_quantity cannot be lower than available_quantity")
)

type GiftRepository interface {
	ListActive(ctx context.Context) ([]*models.Gift, error)
	ListAll(ctx context.Context) ([]*models.Gift, error)
	GetByID(ctx context.Context, id int64) (*models.Gift, error)
	Create(ctx context.Context, gift *models.Gift) (*models.Gift, error)
	Update(ctx context.Context, id int64, patch models.GiftPatch) (*models.Gift, error)
	Delete(ctx context.Context, id int64) error
}
