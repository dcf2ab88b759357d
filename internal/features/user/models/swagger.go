package models

import "gift-store-backend/internal/common/validation"

// AuthResponse ответ на рукопожатие мини-приложения
type AuthResponse struct {
	OK     bool  `json:"ok" example:"true"`
	UserID int64 `json:"user_id" example:"1"`
}

// MeResponse оборачивает профиль; user = null для неизвестного пользователя
type MeResponse struct {
	OK   bool     `json:"ok" example:"true"`
	User *Profile `json:"user"`
}

// AdminUpsertRequest создание или обновление пользователя из админки
type AdminUpsertRequest struct {
	TgID     validation.FlexInt `json:"tg_id" swaggertype:"integer" example:"123456789"`
	Username *string            `json:"username" example:"johndoe"`
}
