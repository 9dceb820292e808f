// Package redisdb implements the trade log on Redis. Each calendar day
// is one hash keyed paper_trades:<date>, field trade_id, value JSON.
// Retention is enforced by a per-key TTL rather than an explicit sweep.
package redisdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/storage"
)

const keyPrefix = "paper_trades:"

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Retention is the TTL applied to each day key. Zero disables expiry.
	Retention time.Duration
}

// DefaultRetention keeps 30 days of trade history.
const DefaultRetention = 30 * 24 * time.Hour

// TradeLogStore is a Redis implementation of storage.TradeLogStore.
type TradeLogStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewTradeLogStore connects to Redis and verifies the connection.
func NewTradeLogStore(ctx context.Context, cfg Config) (*TradeLogStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	retention := cfg.Retention
	if retention == 0 {
		retention = DefaultRetention
	}

	return &TradeLogStore{client: client, retention: retention}, nil
}

// NewTradeLogStoreWithClient wraps an existing client, for tests and
// shared-pool setups.
func NewTradeLogStoreWithClient(client *redis.Client, retention time.Duration) *TradeLogStore {
	if retention == 0 {
		retention = DefaultRetention
	}
	return &TradeLogStore{client: client, retention: retention}
}

// Close releases the underlying client.
func (s *TradeLogStore) Close() error {
	return s.client.Close()
}

// Append adds a trade under its calendar day key. Returns ErrDuplicateKey
// if trade_id already exists for that day.
func (s *TradeLogStore) Append(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade %s: %w", t.TradeID, err)
	}

	key := keyPrefix + t.Day()
	set, err := s.client.HSetNX(ctx, key, t.TradeID, payload).Result()
	if err != nil {
		return fmt.Errorf("hsetnx %s: %w", key, err)
	}
	if !set {
		return storage.ErrDuplicateKey
	}

	// TTL starts at the first write of the day and is refreshed on each
	// append so a day's records expire together.
	if s.retention > 0 {
		if err := s.client.Expire(ctx, key, s.retention).Err(); err != nil {
			return fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return nil
}

// Day retrieves all trades for a calendar date, ordered by timestamp ASC.
func (s *TradeLogStore) Day(ctx context.Context, date string) ([]*domain.TradeRecord, error) {
	key := keyPrefix + date
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}

	result := make([]*domain.TradeRecord, 0, len(fields))
	for id, payload := range fields {
		var t domain.TradeRecord
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return nil, fmt.Errorf("unmarshal trade %s: %w", id, err)
		}
		result = append(result, &t)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// Sweep is a no-op: Redis expires whole day keys via TTL.
func (s *TradeLogStore) Sweep(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

var _ storage.TradeLogStore = (*TradeLogStore)(nil)
