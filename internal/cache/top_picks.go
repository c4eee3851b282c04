// Package cache keeps the public top picks list in Redis. A nil *TopPicks is a valid
// cache that never hits, so callers do not branch on whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"shopguide/internal/models"
)

const topPicksKey = "shopguide:top-picks:public"

type TopPicks struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect pings Redis at addr. An empty addr returns a nil cache.
func Connect(addr, password string, db int, ttl time.Duration) (*TopPicks, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	zap.L().Info("redis connected", zap.String("addr", addr))
	return New(rdb, ttl), nil
}

func New(rdb *redis.Client, ttl time.Duration) *TopPicks {
	return &TopPicks{rdb: rdb, ttl: ttl}
}

// Get returns the cached public list. Any Redis failure counts as a miss.
func (c *TopPicks) Get(ctx context.Context) ([]models.Product, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, topPicksKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("top picks cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		zap.L().Warn("top picks cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return products, true
}

func (c *TopPicks) Set(ctx context.Context, products []models.Product) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(products)
	if err != nil {
		zap.L().Warn("top picks cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, topPicksKey, payload, c.ttl).Err(); err != nil {
		zap.L().Warn("top picks cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached list; every product mutation calls it.
func (c *TopPicks) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, topPicksKey).Err(); err != nil {
		zap.L().Warn("top picks cache invalidate failed", zap.Error(err))
	}
}

func (c *TopPicks) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
