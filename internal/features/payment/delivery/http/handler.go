package http

import (
	"crypto/subtle"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/middleware"
	"gift-store-backend/internal/features/payment/models"
	"gift-store-backend/internal/features/payment/service"
)

// HeaderWebhookSecret заголовок, который Telegram присылает при setWebhook с secret_token
const HeaderWebhookSecret = "X-Telegram-Bot-Api-Secret-Token"

type PaymentHandler struct {
	service       service.PaymentService
	webhookSecret string
}

func NewPaymentHandler(service service.PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{service: service, webhookSecret: webhookSecret}
}

// RegisterRoutes: invoice endpoints get the extra handlers (rate limit), the webhook does not.
func (h *PaymentHandler) RegisterRoutes(api *gin.RouterGroup, invoiceMiddleware ...gin.HandlerFunc) {
	payments := api.Group("/payments")
	{
		invoices := payments.Group("", invoiceMiddleware...)
		invoices.POST("/create-invoice", h.createInvoice)
		invoices.POST("/topup", h.topUp)

		payments.POST("/webhook", h.webhook)
	}
}

// @Summary Create gift invoice
// @Description Creates a Telegram Stars invoice link for one gift.
// @Tags payments
// @Accept json
// @Produce json
// @Param body body models.CreateInvoiceRequest true "Invoice"
// @Success 200 {object} models.InvoiceResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Gift not found"
// @Failure 429 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse "Telegram rejected the invoice"
// @Router /payments/create-invoice [post]
func (h *PaymentHandler) createInvoice(c *gin.Context) {
	var req models.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.NewBadRequestError(err.Error()))
		return
	}

	resp, err := h.service.CreateGiftInvoice(c.Request.Context(), &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Create top-up invoice
// @Description Creates a Telegram Stars invoice link that credits the internal balance.
// @Tags payments
// @Accept json
// @Produce json
// @Param body body models.TopUpRequest true "Top-up"
// @Success 200 {object} models.InvoiceResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Failure 502 {object} middleware.ErrorResponse
// @Router /payments/topup [post]
func (h *PaymentHandler) topUp(c *gin.Context) {
	var req models.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.NewBadRequestError(err.Error()))
		return
	}

	resp, err := h.service.CreateTopUpInvoice(c.Request.Context(), &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Telegram webhook
// @Description Receives pre_checkout_query and successful_payment updates from the Bot API.
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} models.OKResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse "Wrong secret token"
// @Failure 500 {object} middleware.ErrorResponse
// @Router /payments/webhook [post]
func (h *PaymentHandler) webhook(c *gin.Context) {
	if h.webhookSecret != "" {
		got := c.GetHeader(HeaderWebhookSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
			middleware.AbortWithError(c, errors.NewUnauthorizedError("invalid webhook secret"))
			return
		}
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		middleware.AbortWithError(c, errors.NewBadRequestError(err.Error()))
		return
	}

	if err := h.service.HandleUpdate(c.Request.Context(), &update); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}
