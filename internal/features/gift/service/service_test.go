package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/validation"
	"gift-store-backend/internal/features/gift/models"
	"gift-store-backend/internal/features/gift/repository"
)

type fakeRepo struct {
	gifts   map[int64]*models.Gift
	nextID  int64
	patches []models.GiftPatch
}

func newFakeRepo(gifts ...*models.Gift) *fakeRepo {
	r := &fakeRepo{gifts: map[int64]*models.Gift{}, nextID: 1}
	for _, g := range gifts {
		r.gifts[g.ID] = g
		if g.ID >= r.nextID {
			r.nextID = g.ID + 1
		}
	}
	return r
}

func (r *fakeRepo) ListActive(context.Context) ([]*models.Gift, error) {
	var out []*models.Gift
	for id := int64(1); id < r.nextID; id++ {
		if g, ok := r.gifts[id]; ok && g.IsActive {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAll(context.Context) ([]*models.Gift, error) { return nil, nil }

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*models.Gift, error) {
	g, ok := r.gifts[id]
	if !ok {
		return nil, repository.ErrGiftNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeRepo) Create(_ context.Context, g *models.Gift) (*models.Gift, error) {
	cp := *g
	cp.ID = r.nextID
	r.nextID++
	r.gifts[cp.ID] = &cp
	return &cp, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, p models.GiftPatch) (*models.Gift, error) {
	g, ok := r.gifts[id]
	if !ok {
		return nil, repository.ErrGiftNotFound
	}
	r.patches = append(r.patches, p)
	if p.TotalQuantity != nil && *p.TotalQuantity < g.AvailableQuantity {
		return nil, repository.ErrTotalBelowAvailable
	}
	if p.IsActive != nil {
		g.IsActive = *p.IsActive
	}
	if p.TotalQuantity != nil {
		g.TotalQuantity = *p.TotalQuantity
	}
	cp := *g
	return &cp, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.gifts[id]; !ok {
		return repository.ErrGiftNotFound
	}
	delete(r.gifts, id)
	return nil
}

// passthroughCache always misses, so every read reaches the repository.
type passthroughCache struct {
	invalidations int
}

func (c *passthroughCache) GetOrSet(_ context.Context, _ string, dest interface{}, _ time.Duration, loader func() (interface{}, error)) error {
	v, err := loader()
	if err != nil {
		return err
	}
	data, _ := json.Marshal(v)
	return json.Unmarshal(data, dest)
}

func (c *passthroughCache) InvalidateCatalog(context.Context) error {
	c.invalidations++
	return nil
}

type fakeStock struct {
	repo *fakeRepo
	err  error
}

func (s *fakeStock) AdjustStock(_ context.Context, giftID, delta int64) error {
	if s.err != nil {
		return s.err
	}
	s.repo.gifts[giftID].AvailableQuantity += delta
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestCreate_Defaults(t *testing.T) {
	repo := newFakeRepo()
	c := &passthroughCache{}
	svc := NewGiftService(repo, c, &fakeStock{repo: repo}, time.Second)

	gift, err := svc.Create(context.Background(), &models.CreateGiftRequest{
		TotalQuantity: ptr(int64(10)),
		RibbonText:    ptr("   "),
		RibbonColor:   ptr("#FF5733"),
		Description:   ptr("undefined"),
		LimitedUntil:  ptr("not a date"),
	})
	require.NoError(t, err)

	assert.Equal(t, validation.DefaultGiftName, gift.Name)
	assert.Equal(t, validation.DefaultGiftDescription, *gift.Description)
	assert.Equal(t, int64(10), gift.AvailableQuantity)
	assert.Equal(t, DefaultStatus, gift.Status)
	assert.Equal(t, DefaultFrameType, gift.FrameType)
	assert.True(t, gift.IsActive)
	assert.False(t, gift.IsLimited)
	assert.Nil(t, gift.RibbonText)
	assert.Nil(t, gift.RibbonColor)
	assert.Nil(t, gift.LimitedUntil)
	assert.Equal(t, 1, c.invalidations)
}

func TestCreate_AvailableAboveTotal(t *testing.T) {
	svc := NewGiftService(newFakeRepo(), &passthroughCache{}, nil, time.Second)

	_, err := svc.Create(context.Background(), &models.CreateGiftRequest{
		TotalQuantity:     ptr(int64(1)),
		AvailableQuantity: ptr(int64(2)),
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsValidation())
}

func TestListActive_TogglingIsVisibleImmediately(t *testing.T) {
	repo := newFakeRepo(
		&models.Gift{ID: 1, Name: "Castle", IsActive: true, TotalQuantity: 5, AvailableQuantity: 5},
		&models.Gift{ID: 2, Name: "Rocket", IsActive: true, TotalQuantity: 5, AvailableQuantity: 5, Description: ptr("To the moon!")},
	)
	svc := NewGiftService(repo, &passthroughCache{}, nil, time.Second)
	ctx := context.Background()

	gifts, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, gifts, 2)
	assert.Equal(t, validation.DefaultGiftDescription, *gifts[0].Description)
	assert.Equal(t, "To the moon!", *gifts[1].Description)

	_, err = svc.Update(ctx, 1, &models.UpdateGiftRequest{IsActive: ptr(false)})
	require.NoError(t, err)

	gifts, err = svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, gifts, 1)
	assert.Equal(t, int64(2), gifts[0].ID)
}

func TestUpdate_NormalizesOptionalFields(t *testing.T) {
	repo := newFakeRepo(&models.Gift{ID: 1, Name: "Castle", TotalQuantity: 5, AvailableQuantity: 5})
	svc := NewGiftService(repo, &passthroughCache{}, nil, time.Second)

	var req models.UpdateGiftRequest
	require.NoError(t, json.Unmarshal([]byte(`{"ribbon_color":"pink","ribbon_text":null,"available_quantity":999}`), &req))

	_, err := svc.Update(context.Background(), 1, &req)
	require.NoError(t, err)

	require.Len(t, repo.patches, 1)
	p := repo.patches[0]
	assert.True(t, p.SetRibbonColor)
	assert.Nil(t, p.RibbonColor)
	assert.True(t, p.SetRibbonText)
	assert.False(t, p.SetLimitedUntil)
	assert.Equal(t, int64(5), repo.gifts[1].AvailableQuantity)
}

func TestUpdate_Errors(t *testing.T) {
	repo := newFakeRepo(&models.Gift{ID: 1, Name: "Castle", TotalQuantity: 5, AvailableQuantity: 4})
	svc := NewGiftService(repo, &passthroughCache{}, nil, time.Second)

	_, err := svc.Update(context.Background(), 99, &models.UpdateGiftRequest{IsActive: ptr(true)})
	appErr, _ := errors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCodeGiftNotFound, appErr.Code)

	_, err = svc.Update(context.Background(), 1, &models.UpdateGiftRequest{TotalQuantity: ptr(int64(3))})
	appErr, _ = errors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.True(t, appErr.IsConflict())
}

func TestAdjustStock_DelegatesToLedger(t *testing.T) {
	repo := newFakeRepo(&models.Gift{ID: 1, Name: "Castle", TotalQuantity: 5, AvailableQuantity: 4})
	svc := NewGiftService(repo, &passthroughCache{}, &fakeStock{repo: repo}, time.Second)

	gift, err := svc.AdjustStock(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), gift.AvailableQuantity)

	conflict := errors.New(errors.ErrCodeInsufficientStock, "Insufficient availability")
	svc = NewGiftService(repo, &passthroughCache{}, &fakeStock{repo: repo, err: conflict}, time.Second)
	_, err = svc.AdjustStock(context.Background(), 1, 1)
	assert.Same(t, conflict, err)
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo(&models.Gift{ID: 1, Name: "Castle"})
	c := &passthroughCache{}
	svc := NewGiftService(repo, c, nil, time.Second)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.Equal(t, 1, c.invalidations)

	err := svc.Delete(context.Background(), 1)
	appErr, _ := errors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.True(t, appErr.IsNotFound())
}
