package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	stockKeyPrefix = "stock:"
	lowStockKey    = "lowstock"
)

// RedisStockCache is the read-model side of stock levels: a cached
// quantity per product plus a set of products currently below their
// minimum. It is maintained by the stock projection subscriber.
type RedisStockCache struct {
	client *redis.Client
}

func NewRedisStockCache(client *redis.Client) *RedisStockCache {
	return &RedisStockCache{client: client}
}

func (c *RedisStockCache) SetStock(ctx context.Context, productID string, qty decimal.Decimal) error {
	return c.client.Set(ctx, stockKeyPrefix+productID, qty.String(), 0).Err()
}

func (c *RedisStockCache) GetStock(ctx context.Context, productID string) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, stockKeyPrefix+productID).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get cached stock: %w", err)
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse cached stock: %w", err)
	}
	return qty, true, nil
}

func (c *RedisStockCache) MarkLowStock(ctx context.Context, productID string) error {
	return c.client.SAdd(ctx, lowStockKey, productID).Err()
}

func (c *RedisStockCache) ClearLowStock(ctx context.Context, productID string) error {
	return c.client.SRem(ctx, lowStockKey, productID).Err()
}

func (c *RedisStockCache) LowStock(ctx context.Context) ([]string, error) {
	return c.client.SMembers(ctx, lowStockKey).Result()
}
