package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/middleware"
	"gift-store-backend/internal/features/gift/models"
)

type stubService struct {
	gifts     []*models.Gift
	lastDelta int64
	err       error
}

func (s *stubService) ListActive(context.Context) ([]*models.Gift, error) { return s.gifts, s.err }
func (s *stubService) ListAll(context.Context) ([]*models.Gift, error)    { return s.gifts, s.err }

func (s *stubService) Get(_ context.Context, id int64) (*models.Gift, error) {
	return &models.Gift{ID: id}, s.err
}

func (s *stubService) Create(_ context.Context, req *models.CreateGiftRequest) (*models.Gift, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Gift{ID: 7, Name: *req.Name}, nil
}

func (s *stubService) Update(_ context.Context, id int64, _ *models.UpdateGiftRequest) (*models.Gift, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Gift{ID: id}, nil
}

func (s *stubService) Delete(context.Context, int64) error { return s.err }

func (s *stubService) AdjustStock(_ context.Context, id, delta int64) (*models.Gift, error) {
	s.lastDelta = delta
	if s.err != nil {
		return nil, s.err
	}
	return &models.Gift{ID: id, AvailableQuantity: 5 + delta}, nil
}

func setupRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	NewGiftHandler(svc).RegisterRoutes(r.Group("/api"), r.Group("/api/admin"))
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestListActive(t *testing.T) {
	r := setupRouter(&stubService{gifts: []*models.Gift{{ID: 1, Name: "Rocket"}}})

	w := do(r, http.MethodGet, "/api/gifts", "")
	require.Equal(t, http.StatusOK, w.Code)

	var gifts []models.Gift
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gifts))
	require.Len(t, gifts, 1)
	assert.Equal(t, "Rocket", gifts[0].Name)
}

func TestCreate(t *testing.T) {
	r := setupRouter(&stubService{})

	w := do(r, http.MethodPost, "/api/admin/gifts", `{"name":"Castle","total_quantity":3}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/api/admin/gifts", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_InvalidID(t *testing.T) {
	r := setupRouter(&stubService{})

	w := do(r, http.MethodPatch, "/api/admin/gifts/abc", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete_NotFound(t *testing.T) {
	r := setupRouter(&stubService{err: errors.New(errors.ErrCodeGiftNotFound, "Gift not found")})

	w := do(r, http.MethodDelete, "/api/admin/gifts/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "GIFT_NOT_FOUND")
}

func TestDelete_OK(t *testing.T) {
	r := setupRouter(&stubService{})

	w := do(r, http.MethodDelete, "/api/admin/gifts/9", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestAdjustStock(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := do(r, http.MethodPost, "/api/admin/gifts/1/stock", `{"delta":-1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(-1), svc.lastDelta)

	w = do(r, http.MethodPost, "/api/admin/gifts/1/stock", `{"delta":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = errors.New(errors.ErrCodeInsufficientStock, "Insufficient availability")
	w = do(r, http.MethodPost, "/api/admin/gifts/1/stock", `{"delta":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_STOCK")
}
