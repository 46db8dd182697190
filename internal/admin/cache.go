package admin

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Cache holds chat administrator sets between dispatches.
type Cache interface {
	Get(ctx context.Context, chatID int64) ([]int64, bool, error)
	Set(ctx context.Context, chatID int64, admins []int64) error
	Purge(ctx context.Context, chatID int64) error
}

type MemCache struct {
	data *expirable.LRU[int64, []int64]
}

var _ Cache = (*MemCache)(nil)

func NewMemCache(capacity int, ttl time.Duration) *MemCache {
	return &MemCache{
		data: expirable.NewLRU[int64, []int64](capacity, nil, ttl),
	}
}

func (c *MemCache) Get(_ context.Context, chatID int64) ([]int64, bool, error) {
	v, ok := c.data.Get(chatID)
	return v, ok, nil
}

func (c *MemCache) Set(_ context.Context, chatID int64, admins []int64) error {
	c.data.Add(chatID, admins)
	return nil
}

func (c *MemCache) Purge(_ context.Context, chatID int64) error {
	c.data.Remove(chatID)
	return nil
}

// RedisCache shares administrator sets between bot replicas.
type RedisCache struct {
	data *cache.Cache
	ttl  time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(rdb *redis.Client, ttl time.Duration, localSize int) *RedisCache {
	opts := &cache.Options{Redis: rdb}
	if localSize > 0 {
		opts.LocalCache = cache.NewTinyLFU(localSize, ttl)
	}
	return &RedisCache{
		data: cache.New(opts),
		ttl:  ttl,
	}
}

// NewRedisCacheFromURL parses redisURL and checks the connection.
func NewRedisCacheFromURL(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return NewRedisCache(rdb, ttl, 10_000), nil
}

func redisCacheKey(chatID int64) string {
	return "cache/chat_admins/" + strconv.FormatInt(chatID, 10)
}

func (c *RedisCache) Get(ctx context.Context, chatID int64) ([]int64, bool, error) {
	var admins []int64
	err := c.data.Get(ctx, redisCacheKey(chatID), &admins)
	if err == cache.ErrCacheMiss {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return admins, true, nil
}

func (c *RedisCache) Set(ctx context.Context, chatID int64, admins []int64) error {
	return c.data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisCacheKey(chatID),
		Value: admins,
		TTL:   c.ttl,
	})
}

func (c *RedisCache) Purge(ctx context.Context, chatID int64) error {
	return c.data.Delete(ctx, redisCacheKey(chatID))
}
