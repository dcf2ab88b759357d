package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gift-store-backend/internal/common/validation"
)

const (
	KindGift  = "gift"
	KindTopUp = "topup"
)

// Payload разобранный invoice_payload вида <kind>_<id>_<unixMillis>
type Payload struct {
	Kind     string
	TargetID int64
	IssuedAt time.Time
}

func NewPayload(kind string, targetID int64, at time.Time) Payload {
	return Payload{Kind: kind, TargetID: targetID, IssuedAt: at}
}

func (p Payload) String() string {
	return fmt.Sprintf("%s_%d_%d", p.Kind, p.TargetID, p.IssuedAt.UnixMilli())
}

// ParsePayload accepts gift_<giftId>_<ms> and topup_<userId>_<ms>.
func ParsePayload(s string) (Payload, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return Payload{}, fmt.Errorf("malformed payload %q", s)
	}
	if parts[0] != KindGift && parts[0] != KindTopUp {
		return Payload{}, fmt.Errorf("unknown payload kind %q", parts[0])
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return Payload{}, fmt.Errorf("invalid target id in payload %q", s)
	}
	ms, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("invalid timestamp in payload %q", s)
	}
	return Payload{Kind: parts[0], TargetID: id, IssuedAt: time.UnixMilli(ms)}, nil
}

// InvoiceRecord то, что мы запомнили при выставлении счёта
type InvoiceRecord struct {
	Kind     string    `json:"kind"`
	TargetID int64     `json:"target_id"`
	Amount   int64     `json:"amount"`
	IssuedAt time.Time `json:"issued_at"`
}

// CreateInvoiceRequest тело POST /payments/create-invoice
type CreateInvoiceRequest struct {
	GiftID      validation.FlexInt `json:"giftId" swaggertype:"integer" example:"1"`
	Title       string             `json:"title" example:"Rocket"`
	Amount      *float64           `json:"amount" example:"250"`
	Description *string            `json:"description"`
}

// TopUpRequest тело POST /payments/topup
type TopUpRequest struct {
	TgID   validation.FlexInt `json:"tg_id" swaggertype:"integer" example:"123456789"`
	Amount *float64           `json:"amount" example:"100"`
}

// InvoiceResponse ссылка на оплату
type InvoiceResponse struct {
	OK          bool   `json:"ok" example:"true"`
	InvoiceLink string `json:"invoiceLink" example:"https://t.me/$AbCdEf"`
	Slug        string `json:"slug" example:"$AbCdEf"`
	Payload     string `json:"payload" example:"gift_1_1717171717171"`
}

type OKResponse struct {
	OK bool `json:"ok" example:"true"`
}
