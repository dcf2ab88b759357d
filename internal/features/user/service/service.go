package service

import (
	"context"
	stderrors "errors"
	"strings"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/logger"
	"gift-store-backend/internal/features/user/mapper"
	"gift-store-backend/internal/features/user/models"
	"gift-store-backend/internal/features/user/repository"
)

const searchLimit = 100

type UserService interface {
	// EnsureTelegramUser апсертит пользователя мини-приложения и возвращает внутренний id
	EnsureTelegramUser(ctx context.Context, tgID int64, username, avatarURL string) (int64, error)
	GetProfile(ctx context.Context, tgID int64, includeStars bool) (*models.Profile, error)
	GetByTgID(ctx context.Context, tgID int64) (*models.User, error)
	Search(ctx context.Context, query string) ([]*models.User, error)
	AdminUpsert(ctx context.Context, tgID int64, username *string) (*models.User, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{
		repo: repo,
	}
}

func (s *userService) EnsureTelegramUser(ctx context.Context, tgID int64, username, avatarURL string) (int64, error) {
	if tgID <= 0 {
		return 0, errors.NewValidationError("id", "telegram id is required")
	}

	user, err := s.repo.UpsertTelegram(ctx, tgID, optional(username), optional(avatarURL))
	if err != nil {
		return 0, errors.NewDatabaseError("upsert user", err)
	}

	logger.Debug().Int64("tg_id", tgID).Int64("user_id", user.ID).Msg("Telegram user upserted")
	return user.ID, nil
}

// GetProfile returns nil without error for an unknown user.
func (s *userService) GetProfile(ctx context.Context, tgID int64, includeStars bool) (*models.Profile, error) {
	user, err := s.repo.GetByTgID(ctx, tgID)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, errors.NewDatabaseError("get user", err)
	}

	return mapper.ToProfile(user, includeStars), nil
}

func (s *userService) GetByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	user, err := s.repo.GetByTgID(ctx, tgID)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.New(errors.ErrCodeUserNotFound, "User not found")
		}
		return nil, errors.NewDatabaseError("get user", err)
	}
	return user, nil
}

func (s *userService) Search(ctx context.Context, query string) ([]*models.User, error) {
	users, err := s.repo.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, errors.NewDatabaseError("search users", err)
	}
	return users, nil
}

func (s *userService) AdminUpsert(ctx context.Context, tgID int64, username *string) (*models.User, error) {
	if tgID <= 0 {
		return nil, errors.NewValidationError("tg_id", "tg_id is required")
	}

	user, err := s.repo.UpsertByAdmin(ctx, tgID, username)
	if err != nil {
		return nil, errors.NewDatabaseError("upsert user", err)
	}

	logger.Info().Int64("tg_id", tgID).Int64("user_id", user.ID).Msg("User upserted by admin")
	return user, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
