package models

import "time"

// Периоды лидерборда
const (
	PeriodWeek = "week"
	PeriodAll  = "all"
)

const (
	DefaultLeaderboardLimit = 100
	MaxLeaderboardLimit     = 200
)

// BuyerTotal одна строка агрегата по покупкам пользователя
type BuyerTotal struct {
	UserID    int64   `db:"user_id"`
	Username  *string `db:"username"`
	AvatarURL *string `db:"avatar_url"`
	TgID      *string `db:"tg_id"`
	Stars     int64   `db:"stars"`
	Gifts     int64   `db:"gifts"`
}

// BuyerRank место пользователя среди всех покупателей периода
type BuyerRank struct {
	Place *int64 `db:"place"`
	Stars int64  `db:"stars"`
	Gifts int64  `db:"gifts"`
}

type UserCard struct {
	ID        int64   `db:"id"`
	Username  *string `db:"username"`
	AvatarURL *string `db:"avatar_url"`
}

type PurchaseTotals struct {
	GiftsPurchased int64 `db:"gifts_purchased"`
	StarsSpent     int64 `db:"stars_spent"`
}

type LeaderboardEntry struct {
	Place     int     `json:"place"`
	UserID    int64   `json:"user_id"`
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
	TgID      *string `json:"tg_id"`
	Stars     int64   `json:"stars"`
	Gifts     int64   `json:"gifts"`
}

// MeEntry place is null when the user has no purchases in the period.
type MeEntry struct {
	Place     *int64  `json:"place"`
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
	Stars     int64   `json:"stars"`
	Gifts     int64   `json:"gifts"`
}

type LeaderboardQuery struct {
	Period string
	Limit  int
	TgID   int64
}

type LeaderboardResponse struct {
	OK          bool               `json:"ok"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Me          *MeEntry           `json:"me"`
}

type DayTotals struct {
	GiftsPurchased int64 `json:"gifts_purchased"`
	StarsSpent     int64 `json:"stars_spent"`
	NewUsers       int64 `json:"new_users"`
}

type TopBuyer struct {
	Username       *string `json:"username"`
	AvatarURL      *string `json:"avatar_url"`
	StarsSpent     int64   `json:"stars_spent"`
	GiftsPurchased int64   `json:"gifts_purchased"`
}

type AdminStats struct {
	DaysOperating int64     `json:"days_operating"`
	Total         DayTotals `json:"total"`
	Today         DayTotals `json:"today"`
	TopToday      *TopBuyer `json:"top_today"`
}

// Window ограничивает выборку по времени; нулевое значение означает всё время
type Window struct {
	Since time.Time
}

func (w Window) IsAll() bool {
	return w.Since.IsZero()
}
