package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"gift-store-backend/internal/common/logger"
)

// CurrencyStars валюта Telegram Stars
const CurrencyStars = "XTR"

// Invoice описывает счёт на оплату в звёздах
type Invoice struct {
	Title       string
	Description string
	Payload     string
	Label       string
	Amount      int64
}

// PaymentsAPI is the part of the Bot API the payment bridge talks to.
type PaymentsAPI interface {
	CreateInvoiceLink(ctx context.Context, inv Invoice) (string, error)
	AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errMsg string) error
	RefundStarPayment(ctx context.Context, userTgID int64, chargeID string) error
}

// UpstreamError возвращается, когда Bot API отклонил запрос или недоступен
type UpstreamError struct {
	Method      string
	Code        int
	Description string
	Err         error
}

func (e *UpstreamError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("telegram %s failed: %s", e.Method, e.Description)
	}
	return fmt.Sprintf("telegram %s failed: %v", e.Method, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Details returns the provider response in the shape passed through to API clients.
func (e *UpstreamError) Details() map[string]interface{} {
	d := map[string]interface{}{"ok": false}
	if e.Code != 0 {
		d["error_code"] = e.Code
	}
	if e.Description != "" {
		d["description"] = e.Description
	} else if e.Err != nil {
		d["description"] = e.Err.Error()
	}
	return d
}

type Client struct {
	bot    *tgbotapi.BotAPI
	logger zerolog.Logger
}

// NewClient создаёт клиента Bot API; токен проверяется вызовом getMe
func NewClient(token string) (*Client, error) {
	return NewClientWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
}

// NewClientWithEndpoint allows pointing the client at a local Bot API server.
func NewClientWithEndpoint(token, endpoint string, httpClient *http.Client) (*Client, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	log := logger.Component("telegram")
	log.Info().Str("bot", bot.Self.UserName).Msg("Telegram client initialized")

	return &Client{bot: bot, logger: log}, nil
}

// CreateInvoiceLink создаёт ссылку на оплату в звёздах
func (c *Client) CreateInvoiceLink(ctx context.Context, inv Invoice) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	amount := inv.Amount
	if amount < 1 {
		amount = 1
	}
	label := inv.Label
	if label == "" {
		label = inv.Title
	}
	description := inv.Description
	if description == "" {
		description = inv.Title
	}

	params := tgbotapi.Params{}
	params["title"] = inv.Title
	params["description"] = description
	params["payload"] = inv.Payload
	// для звёзд provider_token пустой
	params["provider_token"] = ""
	params["currency"] = CurrencyStars
	if err := params.AddInterface("prices", []tgbotapi.LabeledPrice{{Label: label, Amount: int(amount)}}); err != nil {
		return "", fmt.Errorf("failed to encode prices: %w", err)
	}

	resp, err := c.bot.MakeRequest("createInvoiceLink", params)
	if err != nil {
		return "", c.upstream("createInvoiceLink", err)
	}

	var link string
	if err := json.Unmarshal(resp.Result, &link); err != nil || link == "" {
		return "", &UpstreamError{Method: "createInvoiceLink", Description: "empty invoice link in response", Err: err}
	}

	c.logger.Debug().Str("payload", inv.Payload).Int64("amount", amount).Msg("Invoice link created")
	return link, nil
}

// AnswerPreCheckoutQuery отвечает на pre_checkout_query
func (c *Client) AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
		ErrorMessage:       errMsg,
	}
	if _, err := c.bot.Request(cfg); err != nil {
		return c.upstream("answerPreCheckoutQuery", err)
	}
	return nil
}

// RefundStarPayment возвращает звёзды покупателю
func (c *Client) RefundStarPayment(ctx context.Context, userTgID int64, chargeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := tgbotapi.Params{}
	params["user_id"] = strconv.FormatInt(userTgID, 10)
	params["telegram_payment_charge_id"] = chargeID

	if _, err := c.bot.MakeRequest("refundStarPayment", params); err != nil {
		return c.upstream("refundStarPayment", err)
	}

	c.logger.Info().Int64("tg_id", userTgID).Str("charge_id", chargeID).Msg("Star payment refunded")
	return nil
}

func (c *Client) upstream(method string, err error) error {
	ue := &UpstreamError{Method: method, Err: err}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		ue.Code = apiErr.Code
		ue.Description = apiErr.Message
	}
	c.logger.Error().Err(err).Str("method", method).Msg("Telegram API request failed")
	return ue
}
