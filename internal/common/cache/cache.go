package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"gift-store-backend/internal/common/logger"
	"gift-store-backend/internal/common/metrics"
)

// Ключи кэша
const (
	KeyActiveGifts        = "gifts:active"
	KeyLeaderboardPattern = "leaderboard:*"
)

// ErrMiss возвращается, когда ключа нет в кэше
var ErrMiss = errors.New("cache miss")

// LeaderboardKey builds the key for one leaderboard page.
func LeaderboardKey(period string, limit int) string {
	return fmt.Sprintf("leaderboard:%s:%d", period, limit)
}

type CacheService struct {
	rdb redis.Cmdable
}

func NewCacheService(rdb redis.Cmdable) *CacheService {
	return &CacheService{rdb: rdb}
}

// Get получает значение из кэша
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// Set сохраняет значение в кэш
func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Delete удаляет значения из кэша
func (c *CacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DeletePattern удаляет все ключи по паттерну
func (c *CacheService) DeletePattern(ctx context.Context, pattern string) error {
	keys, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.rdb.Del(ctx, keys...).Err()
	}

	return nil
}

// GetOrSet reads key into dest; on a miss it calls loader, stores the result
// and copies it into dest. Redis failures degrade to calling loader.
func (c *CacheService) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func() (interface{}, error)) error {
	family := keyFamily(key)

	err := c.Get(ctx, key, dest)
	if err == nil {
		metrics.RecordCacheLookup(family, true)
		return nil
	}
	metrics.RecordCacheLookup(family, false)
	if !errors.Is(err, ErrMiss) {
		logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	}

	value, err := loader()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}

	return json.Unmarshal(data, dest)
}

// InvalidateCatalog сбрасывает витрину и лидерборды после изменения каталога или остатков
func (c *CacheService) InvalidateCatalog(ctx context.Context) error {
	if err := c.Delete(ctx, KeyActiveGifts); err != nil {
		return fmt.Errorf("failed to delete %s: %w", KeyActiveGifts, err)
	}
	return nil
}

// InvalidateLeaderboard сбрасывает все страницы лидерборда
func (c *CacheService) InvalidateLeaderboard(ctx context.Context) error {
	if err := c.DeletePattern(ctx, KeyLeaderboardPattern); err != nil {
		return fmt.Errorf("failed to delete pattern %s: %w", KeyLeaderboardPattern, err)
	}
	return nil
}

func keyFamily(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
