package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"gift-store-backend/internal/features/user/models"
	"gift-store-backend/internal/features/user/repository"
)

const userColumns = `id, tg_id, username, avatar_url, stars, bought_gifts, sold_gifts, registered_at`

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) repository.UserRepository {
	return &postgresRepository{db: db}
}

// UpsertTelegram создает или обновляет пользователя по tg_id
func (r *postgresRepository) UpsertTelegram(ctx context.Context, tgID int64, username, avatarURL *string) (*models.User, error) {
	query := `
		INSERT INTO users (tg_id, username, avatar_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (tg_id) DO UPDATE SET
			username = COALESCE(EXCLUDED.username, users.username),
			avatar_url = COALESCE(EXCLUDED.avatar_url, users.avatar_url)
		RETURNING ` + userColumns

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, tgID, username, avatarURL); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &user, nil
}

// UpsertByAdmin создает или обновляет пользователя из админки
func (r *postgresRepository) UpsertByAdmin(ctx context.Context, tgID int64, username *string) (*models.User, error) {
	query := `
		INSERT INTO users (tg_id, username)
		VALUES ($1, $2)
		ON CONFLICT (tg_id) DO UPDATE SET username = EXCLUDED.username
		RETURNING ` + userColumns

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, tgID, username); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &user, nil
}

// GetByID получает пользователя по внутреннему ID
func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByTgID получает пользователя по Telegram ID
func (r *postgresRepository) GetByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE tg_id = $1`, tgID)
}

func (r *postgresRepository) getOne(ctx context.Context, query string, arg int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Search ищет по подстроке username (без учёта регистра) или точному tg_id
func (r *postgresRepository) Search(ctx context.Context, query string, limit int) ([]*models.User, error) {
	query = strings.TrimSpace(query)

	var tgID *int64
	if v, err := strconv.ParseInt(query, 10, 64); err == nil {
		tgID = &v
	}

	sqlQuery := `
		SELECT ` + userColumns + `
		FROM users
		WHERE $1 = '' OR username ILIKE '%' || $1 || '%' OR tg_id = $2
		ORDER BY id ASC
		LIMIT $3
	`

	users := make([]*models.User, 0)
	if err := r.db.SelectContext(ctx, &users, sqlQuery, query, tgID, limit); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}
