package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/middleware"
	"gift-store-backend/internal/common/validation"
	"gift-store-backend/internal/features/ledger/models"
	"gift-store-backend/internal/features/ledger/service"
)

type LedgerHandler struct {
	service service.LedgerService
}

func NewLedgerHandler(service service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// RegisterRoutes: buyer идёт через init data и AutoCreateUser, admin через админскую сессию
func (h *LedgerHandler) RegisterRoutes(buyer, admin *gin.RouterGroup) {
	buyer.GET("/collection", h.collection)
	buyer.POST("/purchases", h.purchase)

	admin.POST("/grants", h.grant)
	admin.POST("/transfers", h.transfer)
}

// @Summary Grant gift
// @Description Issues gifts from stock to a user without payment. amount below 1 is treated as 1.
// @Tags admin
// @Accept json
// @Produce json
// @Param body body models.GrantRequest true "Recipient and gift"
// @Success 200 {object} models.OKResponse
// @Failure 400 {object} middleware.ErrorResponse "Insufficient availability"
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Router /admin/grants [post]
func (h *LedgerHandler) grant(c *gin.Context) {
	var req models.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.NewBadRequestError(err.Error()))
		return
	}
	if req.GiftID.Int64() <= 0 {
		middleware.AbortWithError(c, errors.NewValidationError("gift_id", "gift_id is required"))
		return
	}

	recipient := models.UserRef{ID: req.UserID.Int64(), TgID: req.TgID.Int64()}
	if recipient.IsZero() {
		middleware.AbortWithError(c, errors.New(errors.ErrCodeUserNotFound, "User not found"))
		return
	}

	_, err := h.service.GrantGift(c.Request.Context(), models.Grant{
		Recipient: recipient,
		GiftID:    req.GiftID.Int64(),
		Amount:    validation.CoerceAmount(req.Amount.Int64()),
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}

// @Summary Transfer gift
// @Description Moves gifts from one user to another. Without a sender the gifts are issued from stock.
// @Tags admin
// @Accept json
// @Produce json
// @Param body body models.TransferRequest true "Sender, recipient and gift"
// @Success 200 {object} models.OKResponse
// @Failure 400 {object} middleware.ErrorResponse "Insufficient sender holdings"
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Sender or recipient not found"
// @Router /admin/transfers [post]
func (h *LedgerHandler) transfer(c *gin.Context) {
	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.NewBadRequestError(err.Error()))
		return
	}
	if req.GiftID.Int64() <= 0 {
		middleware.AbortWithError(c, errors.NewValidationError("gift_id", "gift_id is required"))
		return
	}

	to := models.UserRef{ID: req.ToUserID.Int64(), TgID: req.ToTgID.Int64()}
	if to.IsZero() {
		middleware.AbortWithError(c, errors.NewValidationError("to_user_id", "recipient is required"))
		return
	}

	t := models.Transfer{
		To:     to,
		GiftID: req.GiftID.Int64(),
		Amount: validation.CoerceAmount(req.Amount.Int64()),
	}
	if from := (models.UserRef{ID: req.FromUserID.Int64(), TgID: req.FromTgID.Int64()}); !from.IsZero() {
		t.From = &from
	}

	if err := h.service.TransferGift(c.Request.Context(), t); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}

// @Summary My collection
// @Tags gifts
// @Produce json
// @Security TelegramInitData
// @Success 200 {array} models.CollectionItem
// @Failure 401 {object} middleware.ErrorResponse
// @Router /collection [get]
func (h *LedgerHandler) collection(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		middleware.AbortWithError(c, errors.NewUnauthorizedError("Telegram Init Data required"))
		return
	}

	items, err := h.service.Collection(c.Request.Context(), userID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Buy with stars balance
// @Description Buys gifts with the internal stars balance at the catalog price.
// @Tags gifts
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param body body models.PurchaseRequest true "Gift and amount"
// @Success 200 {object} models.PurchaseResponse
// @Failure 400 {object} middleware.ErrorResponse "Insufficient availability or stars"
// @Failure 404 {object} middleware.ErrorResponse "Gift not found"
// @Router /purchases [post]
func (h *LedgerHandler) purchase(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		middleware.AbortWithError(c, errors.NewUnauthorizedError("Telegram Init Data required"))
		return
	}

	var req models.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.NewValidationError("gift_id", "gift_id is required"))
		return
	}

	receipt, err := h.service.PurchaseWithBalance(c.Request.Context(), userID, req.GiftID, validation.CoerceAmount(req.Amount))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PurchaseResponse{OK: true, Receipt: receipt})
}
