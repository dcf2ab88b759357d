package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"gift-store-backend/internal/common/cache"
	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/logger"
	"gift-store-backend/internal/common/validation"
	"gift-store-backend/internal/features/gift/models"
	"gift-store-backend/internal/features/gift/repository"
)

const (
	DefaultStatus    = "active"
	DefaultFrameType = "default"
)

// Cache is the subset of the Redis cache used by the catalog.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func() (interface{}, error)) error
	InvalidateCatalog(ctx context.Context) error
}

// StockAdjuster меняет остаток через учётный слой
type StockAdjuster interface {
	AdjustStock(ctx context.Context, giftID, delta int64) error
}

type GiftService interface {
	ListActive(ctx context.Context) ([]*models.Gift, error)
	ListAll(ctx context.Context) ([]*models.Gift, error)
	Get(ctx context.Context, id int64) (*models.Gift, error)
	Create(ctx context.Context, req *models.CreateGiftRequest) (*models.Gift, error)
	Update(ctx context.Context, id int64, req *models.UpdateGiftRequest) (*models.Gift, error)
	Delete(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id, delta int64) (*models.Gift, error)
}

type giftService struct {
	repo     repository.GiftRepository
	cache    Cache
	stock    StockAdjuster
	cacheTTL time.Duration
}

func NewGiftService(repo repository.GiftRepository, cache Cache, stock StockAdjuster, cacheTTL time.Duration) GiftService {
	return &giftService{
		repo:     repo,
		cache:    cache,
		stock:    stock,
		cacheTTL: cacheTTL,
	}
}

func (s *giftService) ListActive(ctx context.Context) ([]*models.Gift, error) {
	var gifts []*models.Gift
	err := s.cache.GetOrSet(ctx, cache.KeyActiveGifts, &gifts, s.cacheTTL, func() (interface{}, error) {
		list, err := s.repo.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		for _, g := range list {
			d := validation.DescriptionOrDefault(g.Description)
			g.Description = &d
		}
		return list, nil
	})
	if err != nil {
		return nil, errors.NewDatabaseError("list active gifts", err)
	}
	return gifts, nil
}

func (s *giftService) ListAll(ctx context.Context) ([]*models.Gift, error) {
	gifts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("list gifts", err)
	}
	return gifts, nil
}

func (s *giftService) Get(ctx context.Context, id int64) (*models.Gift, error) {
	if id <= 0 {
		return nil, errors.NewValidationError("id", "must be a positive integer")
	}
	gift, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "get gift")
	}
	return gift, nil
}

func (s *giftService) Create(ctx context.Context, req *models.CreateGiftRequest) (*models.Gift, error) {
	gift := &models.Gift{
		Name:        validation.NormalizeGiftName(req.Name),
		Price:       valueOr(req.Price, 0),
		StickerURL:  req.StickerURL,
		Status:      stringOr(req.Status, DefaultStatus),
		FrameType:   stringOr(req.FrameType, DefaultFrameType),
		RibbonText:  validation.NormalizeRibbonText(req.RibbonText),
		RibbonColor: validation.NormalizeRibbonColor(req.RibbonColor),
		IsActive:    boolOr(req.IsActive, true),
		IsLimited:   boolOr(req.IsLimited, false),
	}

	description := validation.NormalizeDescription(req.Description)
	if description == "" {
		description = validation.DefaultGiftDescription
	}
	gift.Description = &description

	gift.TotalQuantity = valueOr(req.TotalQuantity, 0)
	gift.AvailableQuantity = valueOr(req.AvailableQuantity, gift.TotalQuantity)

	if req.LimitedUntil != nil {
		gift.LimitedUntil = parseTime(*req.LimitedUntil)
	}

	if err := validation.ValidateNonNegativeInt(gift.Price, "price"); err != nil {
		return nil, errors.NewValidationError("price", err.Error())
	}
	if err := validation.ValidateNonNegativeInt(gift.TotalQuantity, "total_quantity"); err != nil {
		return nil, errors.NewValidationError("total_quantity", err.Error())
	}
	if gift.AvailableQuantity < 0 || gift.AvailableQuantity > gift.TotalQuantity {
		return nil, errors.NewValidationError("available_quantity", "must be between 0 and total_quantity")
	}
	if err := validation.Struct(gift); err != nil {
		return nil, errors.NewValidationError("gift", err.Error())
	}

	created, err := s.repo.Create(ctx, gift)
	if err != nil {
		return nil, mapRepoError(err, "create gift")
	}

	s.invalidate(ctx)
	logger.Info().Int64("gift_id", created.ID).Str("name", created.Name).Msg("Gift created")
	return created, nil
}

func (s *giftService) Update(ctx context.Context, id int64, req *models.UpdateGiftRequest) (*models.Gift, error) {
	if id <= 0 {
		return nil, errors.NewValidationError("id", "must be a positive integer")
	}

	patch := models.GiftPatch{
		Price:         req.Price,
		TotalQuantity: req.TotalQuantity,
		Status:        req.Status,
		FrameType:     req.FrameType,
		IsActive:      req.IsActive,
		IsLimited:     req.IsLimited,
	}

	if req.Name != nil {
		name := validation.NormalizeGiftName(req.Name)
		patch.Name = &name
	}
	if req.Description.Set {
		d := validation.NormalizeDescription(req.Description.Value)
		patch.SetDescription = true
		if d != "" {
			patch.Description = &d
		}
	}
	if req.StickerURL.Set {
		patch.SetStickerURL = true
		patch.StickerURL = req.StickerURL.Value
	}
	if req.RibbonText.Set {
		patch.SetRibbonText = true
		patch.RibbonText = validation.NormalizeRibbonText(req.RibbonText.Value)
	}
	if req.RibbonColor.Set {
		patch.SetRibbonColor = true
		patch.RibbonColor = validation.NormalizeRibbonColor(req.RibbonColor.Value)
	}
	if req.LimitedUntil.Set {
		patch.SetLimitedUntil = true
		if req.LimitedUntil.Value != nil {
			patch.LimitedUntil = parseTime(*req.LimitedUntil.Value)
		}
	}

	if patch.Price != nil && *patch.Price < 0 {
		return nil, errors.NewValidationError("price", "price cannot be negative")
	}
	if patch.TotalQuantity != nil && *patch.TotalQuantity < 0 {
		return nil, errors.NewValidationError("total_quantity", "total_quantity cannot be negative")
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, mapRepoError(err, "update gift")
	}

	s.invalidate(ctx)
	logger.Info().Int64("gift_id", id).Msg("Gift updated")
	return updated, nil
}

func (s *giftService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.NewValidationError("id", "must be a positive integer")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "delete gift")
	}

	s.invalidate(ctx)
	logger.Info().Int64("gift_id", id).Msg("Gift deleted")
	return nil
}

// AdjustStock меняет остаток на delta через учётный слой и возвращает свежую запись
func (s *giftService) AdjustStock(ctx context.Context, id, delta int64) (*models.Gift, error) {
	if err := s.stock.AdjustStock(ctx, id, delta); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *giftService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate catalog cache")
	}
}

func mapRepoError(err error, op string) error {
	switch {
	case stderrors.Is(err, repository.ErrGiftNotFound):
		return errors.New(errors.ErrCodeGiftNotFound, "Gift not found")
	case stderrors.Is(err, repository.ErrGiftNameTaken),
		stderrors.Is(err, repository.ErrGiftInUse),
		stderrors.Is(err, repository.ErrTotalBelowAvailable):
		return errors.NewConflictError(errors.ErrCodeConflict, err.Error())
	default:
		return errors.NewDatabaseError(op, err)
	}
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseTime возвращает nil для пустой или нераспознанной даты
func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func valueOr(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return def
	}
	return strings.TrimSpace(*v)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
