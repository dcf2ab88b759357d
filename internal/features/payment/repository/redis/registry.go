package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gift-store-backend/internal/features/payment/models"
	"gift-store-backend/internal/features/payment/repository"
)

const keyPrefix = "invoice:"

type redisRegistry struct {
	client redis.Cmdable
}

func NewInvoiceRegistry(client redis.Cmdable) repository.InvoiceRegistry {
	return &redisRegistry{client: client}
}

func invoiceKey(payload string) string {
	return keyPrefix + payload
}

func (r *redisRegistry) Register(ctx context.Context, payload string, rec models.InvoiceRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice: %w", err)
	}
	if err := r.client.Set(ctx, invoiceKey(payload), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to register invoice: %w", err)
	}
	return nil
}

func (r *redisRegistry) Lookup(ctx context.Context, payload string) (*models.InvoiceRecord, error) {
	data, err := r.client.Get(ctx, invoiceKey(payload)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	var rec models.InvoiceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invoice: %w", err)
	}
	return &rec, nil
}

func (r *redisRegistry) Forget(ctx context.Context, payload string) error {
	return r.client.Del(ctx, invoiceKey(payload)).Err()
}
