package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"InsiderSignal/internal/model"
)

const snapshotKeyPrefix = "insidersignal:snapshot:"

// RedisSnapshotCache shares company snapshots between processes.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotCache connects to addr and verifies the connection.
func NewRedisSnapshotCache(addr, password string, db int, ttl time.Duration) (*RedisSnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", addr, err)
	}

	log.Info().Str("addr", addr).Msg("connected to redis")
	return &RedisSnapshotCache{client: client, ttl: ttl}, nil
}

// LoadSnapshot returns the cached snapshot for ticker, or ErrNotFound.
func (c *RedisSnapshotCache) LoadSnapshot(ctx context.Context, ticker string) (model.CompanySnapshot, error) {
	val, err := c.client.Get(ctx, snapshotKeyPrefix+ticker).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.CompanySnapshot{}, ErrNotFound
	}
	if err != nil {
		return model.CompanySnapshot{}, fmt.Errorf("redis get %s: %w", ticker, err)
	}
	var snap model.CompanySnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return model.CompanySnapshot{}, fmt.Errorf("decode snapshot %s: %w", ticker, err)
	}
	return snap, nil
}

// SaveSnapshot stores snap under its ticker with the configured TTL.
func (c *RedisSnapshotCache) SaveSnapshot(ctx context.Context, snap model.CompanySnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKeyPrefix+snap.Ticker, b, c.ttl).Err()
}

// Close closes the underlying client.
func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}
