package models

import "gift-store-backend/internal/common/validation"

// GrantRequest тело POST /admin/grants; id можно передавать строкой
type GrantRequest struct {
	UserID validation.FlexInt `json:"user_id" swaggertype:"integer" example:"1"`
	TgID   validation.FlexInt `json:"tg_id" swaggertype:"integer" example:"123456789"`
	GiftID validation.FlexInt `json:"gift_id" swaggertype:"integer" example:"1"`
	Amount validation.FlexInt `json:"amount" swaggertype:"integer" example:"1"`
}

// TransferRequest тело POST /admin/transfers; без отправителя подарки выдаются со склада
type TransferRequest struct {
	FromUserID validation.FlexInt `json:"from_user_id" swaggertype:"integer"`
	FromTgID   validation.FlexInt `json:"from_tg_id" swaggertype:"integer"`
	ToUserID   validation.FlexInt `json:"to_user_id" swaggertype:"integer" example:"2"`
	ToTgID     validation.FlexInt `json:"to_tg_id" swaggertype:"integer"`
	GiftID     validation.FlexInt `json:"gift_id" swaggertype:"integer" example:"1"`
	Amount     validation.FlexInt `json:"amount" swaggertype:"integer" example:"1"`
}

// PurchaseRequest покупка за внутренний баланс
type PurchaseRequest struct {
	GiftID int64 `json:"gift_id" binding:"required" example:"1"`
	Amount int64 `json:"amount" example:"1"`
}

type OKResponse struct {
	OK bool `json:"ok" example:"true"`
}

type PurchaseResponse struct {
	OK      bool     `json:"ok" example:"true"`
	Receipt *Receipt `json:"receipt"`
}
