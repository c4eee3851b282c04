package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopguide/internal/models"
)

func TestNilCacheNeverHits(t *testing.T) {
	var c *TopPicks
	ctx := context.Background()

	c.Set(ctx, []models.Product{{Title: "Kettle"}})
	c.Invalidate(ctx)

	products, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, products)
	assert.NoError(t, c.Close())
}

func TestConnectWithoutAddressDisablesCache(t *testing.T) {
	c, err := Connect("", "", 0, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestUnreachableRedisIsAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := New(rdb, time.Minute)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, []models.Product{{Title: "Kettle"}})
	c.Invalidate(ctx)

	_, ok := c.Get(ctx)
	assert.False(t, ok)
}
