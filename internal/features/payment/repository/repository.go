package repository

import (
	"context"
	"errors"
	"time"

	"gift-store-backend/internal/features/payment/models"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// InvoiceRegistry хранит выставленные счета до оплаты или истечения TTL
type InvoiceRegistry interface {
	Register(ctx context.Context, payload string, rec models.InvoiceRecord, ttl time.Duration) error
	Lookup(ctx context.Context, payload string) (*models.InvoiceRecord, error)
	Forget(ctx context.Context, payload string) error
}
