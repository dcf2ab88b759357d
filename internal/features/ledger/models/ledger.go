package models

import "time"

// Source откуда пришли подарки у записи в журнале покупок
type Source string

const (
	SourceInvoice  Source = "invoice"
	SourceBalance  Source = "balance"
	SourceGrant    Source = "grant"
	SourceTransfer Source = "transfer"
)

const (
	PaymentKindGift  = "gift"
	PaymentKindTopUp = "topup"
)

// Статус записи в payments. refunded конечный: по такому payload больше ничего не зачисляется
const (
	PaymentStatusSettled  = "settled"
	PaymentStatusRefunded = "refunded"
)

// UserRef указывает пользователя по внутреннему id или по Telegram id.
// Если заданы оба, используется ID.
type UserRef struct {
	ID   int64
	TgID int64
}

func ByID(id int64) UserRef     { return UserRef{ID: id} }
func ByTgID(tgID int64) UserRef { return UserRef{TgID: tgID} }

func (r UserRef) IsZero() bool {
	return r.ID <= 0 && r.TgID <= 0
}

// PaymentRef identifies an external payment; Payload is unique across the ledger.
type PaymentRef struct {
	Payload     string
	Kind        string
	TotalAmount int64
	ChargeID    string
	// Status пустой означает PaymentStatusSettled
	Status string
}

func (p PaymentRef) StatusOrDefault() string {
	if p.Status == "" {
		return PaymentStatusSettled
	}
	return p.Status
}

// Settlement is a confirmed purchase of Amount units of GiftID.
type Settlement struct {
	Payer      UserRef
	GiftID     int64
	Amount     int64
	StarsSpent int64
	Source     Source
	Payment    *PaymentRef
}

// Grant административная выдача без оплаты
type Grant struct {
	Recipient UserRef
	GiftID    int64
	Amount    int64
}

// Transfer moves units between holders. A nil From issues the units from stock.
type Transfer struct {
	From   *UserRef
	To     UserRef
	GiftID int64
	Amount int64
}

// TopUp пополнение внутреннего баланса звёзд
type TopUp struct {
	User    UserRef
	Stars   int64
	Payment *PaymentRef
}

// Purchase строка журнала; только вставка
type Purchase struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	GiftID      int64     `db:"gift_id"`
	Amount      int64     `db:"amount"`
	StarsSpent  int64     `db:"stars_spent"`
	Source      Source    `db:"source"`
	PurchasedAt time.Time `db:"purchased_at"`
}

// GiftStock is the part of a gift row the ledger reads inside a transaction.
type GiftStock struct {
	ID                int64 `db:"id"`
	Price             int64 `db:"price"`
	TotalQuantity     int64 `db:"total_quantity"`
	AvailableQuantity int64 `db:"available_quantity"`
	IsActive          bool  `db:"is_active"`
}

// Receipt результат выдачи подарка
type Receipt struct {
	UserID     int64 `json:"user_id"`
	GiftID     int64 `json:"gift_id"`
	Amount     int64 `json:"amount"`
	StarsSpent int64 `json:"stars_spent"`
}

// CollectionItem подарок в коллекции пользователя
// @Description Подарок в коллекции пользователя
type CollectionItem struct {
	GiftID      int64   `json:"gift_id" db:"gift_id" example:"1"`
	Amount      int64   `json:"amount" db:"amount" example:"2"`
	Name        string  `json:"name" db:"name" example:"Rocket"`
	Description *string `json:"description" db:"description"`
	Price       int64   `json:"price" db:"price" example:"250"`
	StickerURL  *string `json:"sticker_url" db:"sticker_url"`
	FrameType   string  `json:"frame_type" db:"frame_type" example:"default"`
	RibbonText  *string `json:"ribbon_text" db:"ribbon_text"`
	RibbonColor *string `json:"ribbon_color" db:"ribbon_color"`
}
