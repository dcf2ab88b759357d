package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"gift-store-backend/internal/features/gift/models"
	"gift-store-backend/internal/features/gift/repository"
	"gift-store-backend/internal/platform/postgres"
)

const giftColumns = `id, name, description, price, total_quantity, available_quantity, sticker_url,
	status, frame_type, ribbon_text, ribbon_color, is_active, is_limited, limited_until, created_at, updated_at`

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) repository.GiftRepository {
	return &postgresRepository{db: db}
}

// ListActive возвращает видимые в магазине подарки
func (r *postgresRepository) ListActive(ctx context.Context) ([]*models.Gift, error) {
	gifts := make([]*models.Gift, 0)
	query := `SELECT ` + giftColumns + ` FROM gifts WHERE is_active = TRUE ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &gifts, query); err != nil {
		return nil, fmt.Errorf("failed to list active gifts: %w", err)
	}
	return gifts, nil
}

// ListAll возвращает весь каталог для админки
func (r *postgresRepository) ListAll(ctx context.Context) ([]*models.Gift, error) {
	gifts := make([]*models.Gift, 0)
	query := `SELECT ` + giftColumns + ` FROM gifts ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &gifts, query); err != nil {
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}
	return gifts, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*models.Gift, error) {
	var gift models.Gift
	query := `SELECT ` + giftColumns + ` FROM gifts WHERE id = $1`
	if err := r.db.GetContext(ctx, &gift, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrGiftNotFound
		}
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}
	return &gift, nil
}

func (r *postgresRepository) Create(ctx context.Context, g *models.Gift) (*models.Gift, error) {
	query := `
		INSERT INTO gifts (name, description, price, total_quantity, available_quantity, sticker_url,
			status, frame_type, ribbon_text, ribbon_color, is_active, is_limited, limited_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + giftColumns

	var created models.Gift
	err := r.db.GetContext(ctx, &created, query,
		g.Name, g.Description, g.Price, g.TotalQuantity, g.AvailableQuantity, g.StickerURL,
		g.Status, g.FrameType, g.RibbonText, g.RibbonColor, g.IsActive, g.IsLimited, g.LimitedUntil)
	if err != nil {
		return nil, mapWriteError(err, "create gift")
	}
	return &created, nil
}

// Update применяет частичное обновление; available_quantity не трогается
func (r *postgresRepository) Update(ctx context.Context, id int64, p models.GiftPatch) (*models.Gift, error) {
	if p.Empty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.SetDescription {
		add("description", p.Description)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.TotalQuantity != nil {
		add("total_quantity", *p.TotalQuantity)
	}
	if p.SetStickerURL {
		add("sticker_url", p.StickerURL)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.FrameType != nil {
		add("frame_type", *p.FrameType)
	}
	if p.SetRibbonText {
		add("ribbon_text", p.RibbonText)
	}
	if p.SetRibbonColor {
		add("ribbon_color", p.RibbonColor)
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	if p.IsLimited != nil {
		add("is_limited", *p.IsLimited)
	}
	if p.SetLimitedUntil {
		add("limited_until", p.LimitedUntil)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE gifts SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), giftColumns)

	var updated models.Gift
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrGiftNotFound
		}
		return nil, mapWriteError(err, "update gift")
	}
	return &updated, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM gifts WHERE id = $1`, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return repository.ErrGiftInUse
		}
		return fmt.Errorf("failed to delete gift: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrGiftNotFound
	}
	return nil
}

func mapWriteError(err error, op string) error {
	if ok, constraint := postgres.IsUniqueViolation(err); ok && strings.Contains(constraint, "name") {
		return repository.ErrGiftNameTaken
	}
	if ok, constraint := postgres.IsCheckViolation(err); ok && constraint == "gifts_available_range" {
		return repository.ErrTotalBelowAvailable
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
