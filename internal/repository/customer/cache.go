package customer

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"salesorder-api/internal/domain"
	"salesorder-api/internal/logger"
)

const (
	customerKeyPrefix = "customer:"
	customerListKey   = "customers:all"
	defaultCacheTTL   = 5 * time.Minute
)

// cachedRepo is a Redis read-through cache in front of another Repository.
// Cache failures are logged and fall through to the inner repository.
type cachedRepo struct {
	inner  Repository
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps inner with a Redis cache. Writes invalidate affected keys.
func NewCached(inner Repository, client redis.Cmdable, ttl time.Duration, log *zap.Logger) Repository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &cachedRepo{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.OrNop(log).Named("customer_cache"),
	}
}

func customerKey(id int64) string {
	return customerKeyPrefix + strconv.FormatInt(id, 10)
}

func (c *cachedRepo) List(ctx context.Context) ([]domain.Customer, error) {
	var cached []domain.Customer
	if c.get(ctx, customerListKey, &cached) {
		return cached, nil
	}
	list, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, customerListKey, list)
	return list, nil
}

func (c *cachedRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var cached domain.Customer
	if c.get(ctx, customerKey(id), &cached) {
		return &cached, nil
	}
	cust, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, customerKey(id), cust)
	return cust, nil
}

func (c *cachedRepo) Upsert(ctx context.Context, cust domain.Customer) (*domain.Customer, error) {
	out, err := c.inner.Upsert(ctx, cust)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, customerKey(out.ID))
	return out, nil
}

func (c *cachedRepo) Delete(ctx context.Context, id int64) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, customerKey(id))
	return nil
}

func (c *cachedRepo) get(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", zap.String("key", key))
		return false
	}
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	c.logger.Debug("cache hit", zap.String("key", key))
	return true
}

func (c *cachedRepo) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *cachedRepo) invalidate(ctx context.Context, keys ...string) {
	keys = append(keys, customerListKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
