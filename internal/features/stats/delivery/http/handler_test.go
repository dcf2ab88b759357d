package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/middleware"
	"gift-store-backend/internal/features/stats/models"
)

type stubService struct {
	last  models.LeaderboardQuery
	err   error
	stats *models.AdminStats
}

func (s *stubService) Leaderboard(_ context.Context, q models.LeaderboardQuery) (*models.LeaderboardResponse, error) {
	s.last = q
	if s.err != nil {
		return nil, s.err
	}
	tg := "222"
	return &models.LeaderboardResponse{
		OK:          true,
		Leaderboard: []models.LeaderboardEntry{{Place: 1, UserID: 2, TgID: &tg, Stars: 900, Gifts: 3}},
	}, nil
}

func (s *stubService) AdminStats(context.Context) (*models.AdminStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func setupRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	api := r.Group("/api")
	NewStatsHandler(svc).RegisterRoutes(api, api.Group("/admin"))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLeaderboard(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := get(r, "/api/leaderboard?period=week&limit=abc&tg_id=555")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true,"leaderboard":[{"place":1,"user_id":2,"username":null,"avatar_url":null,"tg_id":"222","stars":900,"gifts":3}],"me":null}`, w.Body.String())
	assert.Equal(t, models.LeaderboardQuery{Period: "week", Limit: 0, TgID: 555}, svc.last)

	w = get(r, "/api/leaderboard?tg_id=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "tg_id must be positive")

	w = get(r, "/api/leaderboard?tg_id=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeaderboard_InternalErrorIsSanitized(t *testing.T) {
	r := setupRouter(&stubService{err: errors.NewDatabaseError("load leaderboard", assert.AnError)})

	w := get(r, "/api/leaderboard")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "load leaderboard")
}

func TestAdminStats(t *testing.T) {
	svc := &stubService{stats: &models.AdminStats{
		DaysOperating: 3,
		Total:         models.DayTotals{GiftsPurchased: 30, StarsSpent: 9000, NewUsers: 12},
	}}
	r := setupRouter(svc)

	w := get(r, "/api/admin/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"days_operating":3,
		"total":{"gifts_purchased":30,"stars_spent":9000,"new_users":12},
		"today":{"gifts_purchased":0,"stars_spent":0,"new_users":0},
		"top_today":null}`, w.Body.String())
}
