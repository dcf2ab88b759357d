package repository

import (
	"context"
	"errors"

	"gift-store-backend/internal/features/user/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	// UpsertTelegram создаёт пользователя по tg_id; при обновлении nil-поля не затирают старые значения
	UpsertTelegram(ctx context.Context, tgID int64, username, avatarURL *string) (*models.User, error)
	// UpsertByAdmin перезаписывает username как есть
	UpsertByAdmin(ctx context.Context, tgID int64, username *string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByTgID(ctx context.Context, tgID int64) (*models.User, error)
	Search(ctx context.Context, query string, limit int) ([]*models.User, error)
}
