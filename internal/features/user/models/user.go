package models

import "time"

// User представляет покупателя мини-приложения
// @Description Пользователь магазина
type User struct {
	ID           int64     `json:"id" db:"id" example:"1"`
	TgID         int64     `json:"tg_id,string" db:"tg_id" example:"123456789"`
	Username     *string   `json:"username" db:"username" example:"johndoe"`
	AvatarURL    *string   `json:"avatar_url" db:"avatar_url"`
	Stars        int64     `json:"stars" db:"stars" example:"250"`
	BoughtGifts  int64     `json:"bought_gifts" db:"bought_gifts" example:"3"`
	SoldGifts    int64     `json:"sold_gifts" db:"sold_gifts" example:"0"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at" example:"2024-03-15T14:30:00Z"`
}

// Profile is what the Mini App shows on the profile screen.
// @Description Профиль текущего пользователя
type Profile struct {
	Username    *string `json:"username" example:"johndoe"`
	AvatarURL   *string `json:"avatar_url"`
	BoughtGifts int64   `json:"bought_gifts" example:"3"`
	SoldGifts   int64   `json:"sold_gifts" example:"0"`
	Stars       *int64  `json:"stars,omitempty" example:"250"`
}
