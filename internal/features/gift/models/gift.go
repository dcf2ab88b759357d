package models

import (
	"encoding/json"
	"time"
)

// Gift позиция каталога с ограниченным тиражом
// @Description Подарок из каталога
type Gift struct {
	ID                int64      `json:"id" db:"id" example:"1"`
	Name              string     `json:"name" db:"name" example:"Rocket" validate:"required"`
	Description       *string    `json:"description" db:"description" example:"To the moon!"`
	Price             int64      `json:"price" db:"price" example:"250" validate:"gte=0"`
	TotalQuantity     int64      `json:"total_quantity" db:"total_quantity" example:"300" validate:"gte=0"`
	AvailableQuantity int64      `json:"available_quantity" db:"available_quantity" example:"297" validate:"gte=0,ltefield=TotalQuantity"`
	StickerURL        *string    `json:"sticker_url" db:"sticker_url" example:"/images/rocket.gif"`
	Status            string     `json:"status" db:"status" example:"active"`
	FrameType         string     `json:"frame_type" db:"frame_type" example:"default"`
	RibbonText        *string    `json:"ribbon_text" db:"ribbon_text" example:"NEW" validate:"omitempty,max=24"`
	RibbonColor       *string    `json:"ribbon_color" db:"ribbon_color" enums:"blue,green,orange,red" validate:"omitempty,ribbon_color"`
	IsActive          bool       `json:"is_active" db:"is_active" example:"true"`
	IsLimited         bool       `json:"is_limited" db:"is_limited" example:"false"`
	LimitedUntil      *time.Time `json:"limited_until" db:"limited_until"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// SoldOut reports whether no units are left for sale.
func (g *Gift) SoldOut() bool {
	return g.AvailableQuantity <= 0
}

// Optional различает отсутствующее поле и явный null в PATCH
type Optional struct {
	Set   bool
	Value *string
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// CreateGiftRequest тело POST /admin/gifts; отсутствующие поля получают значения по умолчанию
type CreateGiftRequest struct {
	Name              *string `json:"name" example:"Rocket"`
	Description       *string `json:"description"`
	Price             *int64  `json:"price" example:"250"`
	TotalQuantity     *int64  `json:"total_quantity" example:"300"`
	AvailableQuantity *int64  `json:"available_quantity" example:"300"`
	StickerURL        *string `json:"sticker_url"`
	Status            *string `json:"status" example:"active"`
	FrameType         *string `json:"frame_type" example:"default"`
	RibbonText        *string `json:"ribbon_text" example:"NEW"`
	RibbonColor       *string `json:"ribbon_color" example:"blue"`
	IsActive          *bool   `json:"is_active" example:"true"`
	IsLimited         *bool   `json:"is_limited" example:"false"`
	LimitedUntil      *string `json:"limited_until" example:"2025-01-01T00:00:00Z"`
}

// UpdateGiftRequest тело PATCH /admin/gifts/{id}.
// available_quantity здесь не принимается: остатки меняются только через /stock.
type UpdateGiftRequest struct {
	Name          *string  `json:"name"`
	Description   Optional `json:"description" swaggertype:"string"`
	Price         *int64   `json:"price"`
	TotalQuantity *int64   `json:"total_quantity"`
	StickerURL    Optional `json:"sticker_url" swaggertype:"string"`
	Status        *string  `json:"status"`
	FrameType     *string  `json:"frame_type"`
	RibbonText    Optional `json:"ribbon_text" swaggertype:"string"`
	RibbonColor   Optional `json:"ribbon_color" swaggertype:"string"`
	IsActive      *bool    `json:"is_active"`
	IsLimited     *bool    `json:"is_limited"`
	LimitedUntil  Optional `json:"limited_until" swaggertype:"string"`
}

// StockRequest изменение остатка кнопками +1/-1
type StockRequest struct {
	Delta int64 `json:"delta" binding:"required" example:"1"`
}

// GiftPatch is the normalized set of columns to update.
type GiftPatch struct {
	Name            *string
	Description     *string
	SetDescription  bool
	Price           *int64
	TotalQuantity   *int64
	StickerURL      *string
	SetStickerURL   bool
	Status          *string
	FrameType       *string
	RibbonText      *string
	SetRibbonText   bool
	RibbonColor     *string
	SetRibbonColor  bool
	IsActive        *bool
	IsLimited       *bool
	LimitedUntil    *time.Time
	SetLimitedUntil bool
}

func (p GiftPatch) Empty() bool {
	return p.Name == nil && !p.SetDescription && p.Price == nil && p.TotalQuantity == nil &&
		!p.SetStickerURL && p.Status == nil && p.FrameType == nil && !p.SetRibbonText &&
		!p.SetRibbonColor && p.IsActive == nil && p.IsLimited == nil && !p.SetLimitedUntil
}

// OKResponse простой ответ {ok:true}
type OKResponse struct {
	OK bool `json:"ok" example:"true"`
}
