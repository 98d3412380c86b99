package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"meal-planner-api/internal/infrastructure/config"
)

// ErrMiss is returned when a key is absent from the cache.
var ErrMiss = fmt.Errorf("cache miss")

// Store is a best-effort Redis read-through cache. A nil Store is valid
// and behaves as a disabled cache: every Get misses and every Set is a
// no-op, so callers degrade to direct store reads.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// New connects to Redis. Returns (nil, nil) when the cache is disabled;
// a connection failure is reported but should not abort startup.
func New(cfg *config.CacheConfig, log *zap.Logger) (*Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client: client,
		ttl:    cfg.TTL,
		log:    log.Named("cache"),
	}, nil
}

// GetJSON loads key into v. Returns ErrMiss on absence; any Redis error
// is also reported as a miss to the caller after being logged.
func (s *Store) GetJSON(ctx context.Context, key string, v interface{}) error {
	if s == nil || s.client == nil {
		return ErrMiss
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return ErrMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("cache payload corrupt", zap.String("key", key), zap.Error(err))
		return ErrMiss
	}
	return nil
}

// GetBytes loads the raw cached payload for key.
func (s *Store) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, ErrMiss
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, ErrMiss
	}
	return data, nil
}

// SetJSON stores v under key with the configured TTL. Best effort: all
// failures are logged and swallowed.
func (s *Store) SetJSON(ctx context.Context, key string, v interface{}) {
	if s == nil || s.client == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.SetBytes(ctx, key, data)
}

// SetBytes stores a raw payload under key with the configured TTL.
func (s *Store) SetBytes(ctx context.Context, key string, data []byte) {
	if s == nil || s.client == nil {
		return
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes keys. Best effort.
func (s *Store) Delete(ctx context.Context, keys ...string) {
	if s == nil || s.client == nil || len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// DeletePattern removes all keys matching pattern via SCAN.
func (s *Store) DeletePattern(ctx context.Context, pattern string) {
	if s == nil || s.client == nil {
		return
	}
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 500 {
			s.Delete(ctx, keys...)
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		s.log.Warn("cache scan failed", zap.String("pattern", pattern), zap.Error(err))
	}
	if len(keys) > 0 {
		s.Delete(ctx, keys...)
	}
}

// Close shuts down the Redis client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("cache disabled")
	}
	return s.client.Ping(ctx).Err()
}
