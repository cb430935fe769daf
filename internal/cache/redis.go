package cache

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client interface {
	IncrWithTTL(key string, window time.Duration) (int64, error)
	GetSubscriptionState(companyID string) ([]byte, error)
	SetSubscriptionState(companyID string, data []byte, ttl time.Duration) error
	InvalidateSubscription(companyID string) error
	SetTrialDeadline(companyID string, ttl time.Duration) error
	GetCatalog(slug string) ([]byte, error)
	SetCatalog(slug string, data []byte, ttl time.Duration) error
	InvalidateCatalog(slug string) error
	SubscribeExpired() (*redis.PubSub, error)
	Close() error
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisClient() (*RedisCache, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			opts.DB = db
		}
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{rdb: rdb}, nil
}

func (c *RedisCache) IncrWithTTL(key string, window time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = c.rdb.Expire(ctx, key, window).Err()
	}
	return count, nil
}

func (c *RedisCache) GetSubscriptionState(companyID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("erp:sub:state:%s", companyID)
	return c.rdb.Get(ctx, key).Bytes()
}

func (c *RedisCache) SetSubscriptionState(companyID string, data []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("erp:sub:state:%s", companyID)
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) InvalidateSubscription(companyID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("erp:sub:state:%s", companyID)
	return c.rdb.Del(ctx, key).Err()
}

// SetTrialDeadline writes a marker key whose expiry drives the trial-expiry
// worker via keyspace notifications.
func (c *RedisCache) SetTrialDeadline(companyID string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("erp:sub:trial:%s", companyID)
	return c.rdb.Set(ctx, key, time.Now().UnixMilli(), ttl).Err()
}

func (c *RedisCache) GetCatalog(slug string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("erp:store:catalog:%s", slug)
	return c.rdb.Get(ctx, key).Bytes()
}

func (c *RedisCache) SetCatalog(slug string, data []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("erp:store:catalog:%s", slug)
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) InvalidateCatalog(slug string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("erp:store:catalog:%s", slug)
	return c.rdb.Del(ctx, key).Err()
}

func (c *RedisCache) SubscribeExpired() (*redis.PubSub, error) {
	channel := fmt.Sprintf("__keyevent@%d__:expired", c.rdb.Options().DB)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pubsub := c.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	return pubsub, nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
