package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/logger"
	"gift-store-backend/internal/common/metrics"
	giftmodels "gift-store-backend/internal/features/gift/models"
	ledgermodels "gift-store-backend/internal/features/ledger/models"
	"gift-store-backend/internal/features/payment/models"
	"gift-store-backend/internal/features/payment/repository"
	usermodels "gift-store-backend/internal/features/user/models"
	"gift-store-backend/internal/platform/telegram"
)

type GiftCatalog interface {
	Get(ctx context.Context, id int64) (*giftmodels.Gift, error)
}

type UserDirectory interface {
	GetByTgID(ctx context.Context, tgID int64) (*usermodels.User, error)
	EnsureTelegramUser(ctx context.Context, tgID int64, username, avatarURL string) (int64, error)
}

type Ledger interface {
	SettlePurchase(ctx context.Context, s ledgermodels.Settlement) (*ledgermodels.Receipt, error)
	CreditStars(ctx context.Context, t ledgermodels.TopUp) error
	RecordRefund(ctx context.Context, payer ledgermodels.UserRef, ref ledgermodels.PaymentRef) error
}

type Options struct {
	// StrictAmount отклоняет оплату, если сумма не совпала с выставленной
	StrictAmount bool
	InvoiceTTL   time.Duration
}

type PaymentService interface {
	CreateGiftInvoice(ctx context.Context, req *models.CreateInvoiceRequest) (*models.InvoiceResponse, error)
	CreateTopUpInvoice(ctx context.Context, req *models.TopUpRequest) (*models.InvoiceResponse, error)
	HandleUpdate(ctx context.Context, update *tgbotapi.Update) error
}

type paymentService struct {
	tg       telegram.PaymentsAPI
	registry repository.InvoiceRegistry
	gifts    GiftCatalog
	users    UserDirectory
	ledger   Ledger
	opts     Options
	now      func() time.Time
	log      zerolog.Logger
}

func NewPaymentService(
	tg telegram.PaymentsAPI,
	registry repository.InvoiceRegistry,
	gifts GiftCatalog,
	users UserDirectory,
	ledger Ledger,
	opts Options,
) PaymentService {
	if opts.InvoiceTTL <= 0 {
		opts.InvoiceTTL = 24 * time.Hour
	}
	return &paymentService{
		tg:       tg,
		registry: registry,
		gifts:    gifts,
		users:    users,
		ledger:   ledger,
		opts:     opts,
		now:      time.Now,
		log:      logger.Component("payments"),
	}
}

// CreateGiftInvoice выставляет счёт на один подарок
func (s *paymentService) CreateGiftInvoice(ctx context.Context, req *models.CreateInvoiceRequest) (*models.InvoiceResponse, error) {
	title := strings.TrimSpace(req.Title)
	if req.GiftID.Int64() <= 0 || title == "" || req.Amount == nil {
		return nil, errors.NewBadRequestError("giftId, title and amount are required")
	}

	gift, err := s.gifts.Get(ctx, req.GiftID.Int64())
	if err != nil {
		return nil, err
	}
	if !gift.IsActive {
		return nil, errors.NewValidationError("giftId", "gift is not on sale")
	}
	if gift.SoldOut() {
		return nil, errors.NewConflictError(errors.ErrCodeInsufficientStock, "Gift is sold out")
	}

	amount := starsAmount(*req.Amount)
	if gift.Price > 0 && amount != gift.Price {
		s.log.Warn().
			Int64("gift_id", gift.ID).
			Int64("requested", amount).
			Int64("price", gift.Price).
			Msg("Invoice amount differs from catalog price, using price")
		amount = gift.Price
	}

	description := title
	if req.Description != nil && strings.TrimSpace(*req.Description) != "" {
		description = strings.TrimSpace(*req.Description)
	}

	payload := models.NewPayload(models.KindGift, gift.ID, s.now())
	return s.issue(ctx, payload, telegram.Invoice{
		Title:       title,
		Description: description,
		Payload:     payload.String(),
		Label:       title,
		Amount:      amount,
	})
}

// CreateTopUpInvoice выставляет счёт на пополнение баланса
func (s *paymentService) CreateTopUpInvoice(ctx context.Context, req *models.TopUpRequest) (*models.InvoiceResponse, error) {
	if req.TgID.Int64() <= 0 || req.Amount == nil || *req.Amount < 1 {
		return nil, errors.NewBadRequestError("tg_id and amount >= 1 are required")
	}

	user, err := s.users.GetByTgID(ctx, req.TgID.Int64())
	if err != nil {
		return nil, err
	}

	amount := starsAmount(*req.Amount)
	who := fmt.Sprintf("%d", user.TgID)
	if user.Username != nil && *user.Username != "" {
		who = *user.Username
	}

	payload := models.NewPayload(models.KindTopUp, user.ID, s.now())
	return s.issue(ctx, payload, telegram.Invoice{
		Title:       fmt.Sprintf("Пополнение баланса на %d звезд", amount),
		Description: fmt.Sprintf("Пополнение баланса для пользователя %s", who),
		Payload:     payload.String(),
		Label:       fmt.Sprintf("Пополнение на %d звезд", amount),
		Amount:      amount,
	})
}

func (s *paymentService) issue(ctx context.Context, payload models.Payload, inv telegram.Invoice) (*models.InvoiceResponse, error) {
	link, err := s.tg.CreateInvoiceLink(ctx, inv)
	if err != nil {
		metrics.RecordPaymentEvent(payload.Kind, "invoice_failed")
		appErr := errors.NewTelegramAPIError("createInvoiceLink", err)
		var upstream *telegram.UpstreamError
		if stderrors.As(err, &upstream) {
			appErr = appErr.WithDetail("details", upstream.Details())
		}
		return nil, appErr
	}

	rec := models.InvoiceRecord{
		Kind:     payload.Kind,
		TargetID: payload.TargetID,
		Amount:   inv.Amount,
		IssuedAt: payload.IssuedAt,
	}
	if err := s.registry.Register(ctx, inv.Payload, rec, s.opts.InvoiceTTL); err != nil {
		// без записи оплата всё равно пройдёт, только без сверки суммы
		s.log.Warn().Err(err).Str("payload", inv.Payload).Msg("Failed to register invoice")
	}

	metrics.RecordPaymentEvent(payload.Kind, "invoice_created")
	s.log.Info().Str("payload", inv.Payload).Int64("amount", inv.Amount).Msg("Invoice created")

	return &models.InvoiceResponse{
		OK:          true,
		InvoiceLink: link,
		Slug:        slugOf(link),
		Payload:     inv.Payload,
	}, nil
}

// HandleUpdate обрабатывает pre_checkout_query и successful_payment.
// Ошибка возвращается только для внутренних сбоев, чтобы Telegram повторил доставку.
func (s *paymentService) HandleUpdate(ctx context.Context, update *tgbotapi.Update) error {
	switch {
	case update.PreCheckoutQuery != nil:
		return s.answerPreCheckout(ctx, update.PreCheckoutQuery)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		return s.handlePayment(ctx, update.Message)
	default:
		return nil
	}
}

func (s *paymentService) answerPreCheckout(ctx context.Context, q *tgbotapi.PreCheckoutQuery) error {
	if _, err := s.registry.Lookup(ctx, q.InvoicePayload); err != nil {
		s.log.Warn().Err(err).Str("payload", q.InvoicePayload).Msg("Pre-checkout for unregistered invoice")
	}

	if err := s.tg.AnswerPreCheckoutQuery(ctx, q.ID, true, ""); err != nil {
		metrics.RecordPaymentEvent("precheckout", "failed")
		return errors.NewTelegramAPIError("answerPreCheckoutQuery", err)
	}
	metrics.RecordPaymentEvent("precheckout", "answered")
	return nil
}

func (s *paymentService) handlePayment(ctx context.Context, msg *tgbotapi.Message) error {
	sp := msg.SuccessfulPayment
	log := s.log.With().Str("payload", sp.InvoicePayload).Int("total_amount", sp.TotalAmount).Logger()

	payload, err := models.ParsePayload(sp.InvoicePayload)
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring payment with unknown payload")
		metrics.RecordPaymentEvent("unknown", "ignored")
		return nil
	}
	if sp.Currency != telegram.CurrencyStars {
		log.Warn().Str("currency", sp.Currency).Msg("Ignoring payment in unexpected currency")
		metrics.RecordPaymentEvent(payload.Kind, "ignored")
		return nil
	}
	if msg.From == nil {
		log.Warn().Msg("Ignoring payment without payer")
		metrics.RecordPaymentEvent(payload.Kind, "ignored")
		return nil
	}

	total := int64(sp.TotalAmount)
	ref := &ledgermodels.PaymentRef{
		Payload:     sp.InvoicePayload,
		Kind:        payload.Kind,
		TotalAmount: total,
		ChargeID:    sp.TelegramPaymentChargeID,
	}

	if reason := s.verify(ctx, payload, sp.InvoicePayload, total); reason != "" {
		log.Warn().Str("reason", reason).Msg("Payment does not match invoice")
		return s.reject(ctx, log, payload.Kind, msg.From, ref)
	}

	switch payload.Kind {
	case models.KindTopUp:
		err = s.ledger.CreditStars(ctx, ledgermodels.TopUp{
			User:    ledgermodels.ByID(payload.TargetID),
			Stars:   total,
			Payment: ref,
		})
	case models.KindGift:
		var userID int64
		userID, err = s.users.EnsureTelegramUser(ctx, msg.From.ID, msg.From.UserName, "")
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "Failed to create/update payer")
		}
		_, err = s.ledger.SettlePurchase(ctx, ledgermodels.Settlement{
			Payer:      ledgermodels.ByID(userID),
			GiftID:     payload.TargetID,
			Amount:     1,
			StarsSpent: total,
			Source:     ledgermodels.SourceInvoice,
			Payment:    ref,
		})
	}

	return s.settled(ctx, log, payload, msg.From, ref, err)
}

// settled разбирает результат учёта: дубль подтверждаем, бизнес-отказ возвращаем деньгами
func (s *paymentService) settled(ctx context.Context, log zerolog.Logger, payload models.Payload, from *tgbotapi.User, ref *ledgermodels.PaymentRef, err error) error {
	if err == nil {
		if ferr := s.registry.Forget(ctx, ref.Payload); ferr != nil {
			log.Debug().Err(ferr).Msg("Failed to forget invoice")
		}
		metrics.RecordPaymentEvent(payload.Kind, "settled")
		log.Info().Int64("target_id", payload.TargetID).Msg("Payment settled")
		return nil
	}

	appErr, ok := errors.AsAppError(err)
	switch {
	case ok && appErr.Code == errors.ErrCodeDuplicatePayment:
		metrics.RecordPaymentEvent(payload.Kind, "duplicate")
		log.Info().Msg("Duplicate payment delivery acknowledged")
		return nil
	case ok && (appErr.IsConflict() || appErr.IsNotFound() || appErr.IsValidation()):
		log.Warn().Str("error_code", string(appErr.Code)).Msg("Payment rejected by ledger, refunding")
		return s.reject(ctx, log, payload.Kind, from, ref)
	default:
		metrics.RecordPaymentEvent(payload.Kind, "failed")
		return err
	}
}

// reject сначала записывает payload как refunded, потом возвращает звёзды.
// Уже записанный payload не возвращаем второй раз.
func (s *paymentService) reject(ctx context.Context, log zerolog.Logger, kind string, from *tgbotapi.User, ref *ledgermodels.PaymentRef) error {
	userID, err := s.users.EnsureTelegramUser(ctx, from.ID, from.UserName, "")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "Failed to create/update payer")
	}

	if err := s.ledger.RecordRefund(ctx, ledgermodels.ByID(userID), *ref); err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeDuplicatePayment {
			metrics.RecordPaymentEvent(kind, "duplicate")
			log.Info().Msg("Payment already recorded, refund skipped")
			return nil
		}
		metrics.RecordPaymentEvent(kind, "failed")
		return err
	}

	s.refund(ctx, kind, from.ID, ref.ChargeID)
	return nil
}

// verify сверяет оплату с записью о счёте; пустая строка означает совпадение
func (s *paymentService) verify(ctx context.Context, payload models.Payload, raw string, total int64) string {
	if total < 1 {
		return "non-positive total_amount"
	}
	if !s.opts.StrictAmount {
		return ""
	}

	rec, err := s.registry.Lookup(ctx, raw)
	if err != nil {
		if !stderrors.Is(err, repository.ErrInvoiceNotFound) {
			s.log.Warn().Err(err).Str("payload", raw).Msg("Invoice lookup failed")
		}
		return ""
	}
	if rec.Kind != payload.Kind || rec.TargetID != payload.TargetID {
		return "payload does not match invoice"
	}
	if rec.Amount != total {
		return fmt.Sprintf("expected %d stars", rec.Amount)
	}
	return ""
}

func (s *paymentService) refund(ctx context.Context, kind string, tgID int64, chargeID string) {
	if chargeID == "" {
		s.log.Error().Int64("tg_id", tgID).Msg("Cannot refund payment without charge id")
		metrics.RecordPaymentEvent(kind, "refund_failed")
		return
	}
	if err := s.tg.RefundStarPayment(ctx, tgID, chargeID); err != nil {
		s.log.Error().Err(err).Int64("tg_id", tgID).Str("charge_id", chargeID).Msg("Refund failed")
		metrics.RecordPaymentEvent(kind, "refund_failed")
		return
	}
	metrics.RecordPaymentEvent(kind, "refunded")
}

func starsAmount(v float64) int64 {
	n := int64(math.Floor(v))
	if n < 1 {
		return 1
	}
	return n
}

// slugOf returns the last path segment of t.me/invoice/<slug> or t.me/$<slug>.
func slugOf(link string) string {
	if i := strings.LastIndexByte(link, '/'); i >= 0 {
		return link[i+1:]
	}
	return link
}
