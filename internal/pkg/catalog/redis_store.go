package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
)

// DefaultSnapshotKey is the redis key holding the shared snapshot
const DefaultSnapshotKey = "catalog:snapshot"

// RedisStore keeps the catalog snapshot in redis so instances share one download
type RedisStore struct {
	rdb *goredis.Client
	key string
}

// NewRedisStore connects to addr and verifies the connection
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreWithClient(rdb, DefaultSnapshotKey), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(rdb *goredis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

// Load returns the stored snapshot; ok is false when none is stored
func (s *RedisStore) Load(ctx context.Context) ([]eligibility.CourseMappingRow, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	var rows []eligibility.CourseMappingRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	return rows, true, nil
}

// Save stores rows with ttl as expiry
func (s *RedisStore) Save(ctx context.Context, rows []eligibility.CourseMappingRow, ttl time.Duration) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Close releases the client
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
