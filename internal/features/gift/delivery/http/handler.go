package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/middleware"
	"gift-store-backend/internal/features/gift/models"
	"gift-store-backend/internal/features/gift/service"
)

type GiftHandler struct {
	service service.GiftService
}

func NewGiftHandler(service service.GiftService) *GiftHandler {
	return &GiftHandler{service: service}
}

func (h *GiftHandler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.GET("/gifts", h.listActive)

	gifts := admin.Group("/gifts")
	{
		gifts.GET("", h.listAll)
		gifts.POST("", h.create)
		gifts.PATCH("/:id", h.update)
		gifts.DELETE("/:id", h.delete)
		gifts.POST("/:id/stock", h.adjustStock)
	}
}

// @Summary List gifts in the store
// @Description Active gifts ordered by id; an empty description is replaced with the default text.
// @Tags gifts
// @Produce json
// @Success 200 {array} models.Gift
// @Failure 500 {object} middleware.ErrorResponse
// @Router /gifts [get]
func (h *GiftHandler) listActive(c *gin.Context) {
	gifts, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gifts)
}

// @Summary List all gifts
// @Tags admin
// @Produce json
// @Success 200 {array} models.Gift
// @Failure 401 {object} middleware.ErrorResponse
// @Router /admin/gifts [get]
func (h *GiftHandler) listAll(c *gin.Context) {
	gifts, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gifts)
}

// @Summary Create gift
// @Tags admin
// @Accept json
// @Produce json
// @Param gift body models.CreateGiftRequest true "Gift"
// @Success 201 {object} models.Gift
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /admin/gifts [post]
func (h *GiftHandler) create(c *gin.Context) {
	var req models.CreateGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.NewBadRequestError(err.Error()))
		return
	}

	gift, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gift)
}

// @Summary Update gift
// @Description Partial update. available_quantity is ignored, use the stock endpoint.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Gift ID"
// @Param gift body models.UpdateGiftRequest true "Fields to change"
// @Success 200 {object} models.Gift
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/gifts/{id} [patch]
func (h *GiftHandler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.UpdateGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.NewBadRequestError(err.Error()))
		return
	}

	gift, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gift)
}

// @Summary Delete gift
// @Tags admin
// @Produce json
// @Param id path int true "Gift ID"
// @Success 200 {object} models.OKResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/gifts/{id} [delete]
func (h *GiftHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}

// @Summary Adjust stock
// @Description Changes available_quantity by delta, kept within 0..total_quantity.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Gift ID"
// @Param body body models.StockRequest true "Delta"
// @Success 200 {object} models.Gift
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/gifts/{id}/stock [post]
func (h *GiftHandler) adjustStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.NewValidationError("delta", "non-zero integer required"))
		return
	}

	gift, err := h.service.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gift)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.AbortWithError(c, errors.NewValidationError("id", "invalid gift id"))
		return 0, false
	}
	return id, true
}
