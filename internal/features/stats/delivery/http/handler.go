package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/middleware"
	"gift-store-backend/internal/common/validation"
	"gift-store-backend/internal/features/stats/models"
	"gift-store-backend/internal/features/stats/service"
)

type StatsHandler struct {
	service service.StatsService
}

func NewStatsHandler(service service.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// RegisterRoutes: обработчики кладут ошибку в c.Error, ответ формирует HandleErrorWrapper
func (h *StatsHandler) RegisterRoutes(public, admin *gin.RouterGroup) {
	wrap := middleware.HandleErrorWrapper()
	public.GET("/leaderboard", wrap(h.leaderboard))
	admin.GET("/stats", wrap(h.adminStats))
}

// @Summary Leaderboard
// @Description Buyers ranked by Stars spent. Week starts on Monday 00:00 server time.
// @Tags stats
// @Produce json
// @Param period query string false "week or all" Enums(week, all)
// @Param limit query int false "Page size, default 100, max 200"
// @Param tg_id query string false "Telegram id for the me block"
// @Success 200 {object} models.LeaderboardResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /leaderboard [get]
func (h *StatsHandler) leaderboard(c *gin.Context) {
	q := models.LeaderboardQuery{Period: c.Query("period")}

	// нечисловой limit молча заменяется на значение по умолчанию
	q.Limit, _ = strconv.Atoi(c.Query("limit"))

	if raw := c.Query("tg_id"); raw != "" {
		tgID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			_ = c.Error(errors.NewValidationError("tg_id", "must be a positive integer"))
			return
		}
		if err := validation.ValidatePositiveInt(tgID, "tg_id"); err != nil {
			_ = c.Error(errors.NewValidationError("tg_id", err.Error()))
			return
		}
		q.TgID = tgID
	}

	resp, err := h.service.Leaderboard(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Store statistics
// @Tags admin
// @Produce json
// @Success 200 {object} models.AdminStats
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /admin/stats [get]
func (h *StatsHandler) adminStats(c *gin.Context) {
	stats, err := h.service.AdminStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
