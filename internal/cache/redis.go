package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "immoeliza:price:"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{
		client: rdb,
		ttl:    ttl,
	}
}

// Ping checks connectivity so startup can fall back to memory.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) (float64, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, price float64) error {
	return r.client.Set(ctx, keyPrefix+key, price, r.ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
