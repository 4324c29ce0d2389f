package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLocker implements the per-job distributed lock with SETNX + TTL, so
// two overlapping scheduled runs on different instances cannot both proceed.
type RedisLocker struct {
	client *redis.Client
}

type RedisLockerConfig struct {
	Address  string
	Password string
	DB       int
}

func NewRedisLocker(cfg RedisLockerConfig) (*RedisLocker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisLocker{client: rdb}, nil
}

func (r *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKey(name), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", name, err)
	}
	return ok, nil
}

func (r *RedisLocker) Release(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, lockKey(name)).Err(); err != nil {
		return fmt.Errorf("release %s: %w", name, err)
	}
	return nil
}

func (r *RedisLocker) Close() error {
	return r.client.Close()
}

func lockKey(name string) string {
	return "centavo:joblock:" + name
}
