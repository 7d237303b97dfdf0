// Package cache holds the optional read-through cache for the settings row.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/go-redis/redis/v8"
)

const settingsKey = "shopservice:settings"

type SettingsCache interface {
	Get(ctx context.Context) (*models.Settings, bool)
	Set(ctx context.Context, s *models.Settings) error
	Invalidate(ctx context.Context) error
}

type RedisSettingsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSettingsCache(client *redis.Client, ttl time.Duration) *RedisSettingsCache {
	return &RedisSettingsCache{client: client, ttl: ttl}
}

// NewRedisClient connects and pings; callers fall back to no cache on error.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Get reports a miss on any error, including a redis outage.
func (c *RedisSettingsCache) Get(ctx context.Context) (*models.Settings, bool) {
	raw, err := c.client.Get(ctx, settingsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var s models.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *RedisSettingsCache) Set(ctx context.Context, s *models.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, settingsKey, raw, c.ttl).Err()
}

func (c *RedisSettingsCache) Invalidate(ctx context.Context) error {
	err := c.client.Del(ctx, settingsKey).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
