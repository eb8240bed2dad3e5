package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/shoebot/core/logger"
)

// DefaultPrefix namespaces state keys in a shared Redis.
const DefaultPrefix = "fsm:"

// DialRedis parses a redis:// URL and verifies connectivity.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("state: invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.LogEvent(ctx, logger.Session, slog.LevelError, "redis.connect",
			slog.String("status", "fail"),
			slog.String("host", opt.Addr),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("state: redis ping: %w", err)
	}
	logger.LogEvent(ctx, logger.Session, slog.LevelInfo, "redis.connect",
		slog.String("status", "ok"),
		slog.String("host", opt.Addr),
		slog.Int("db", opt.DB),
		slog.Duration("duration", logger.Took(start)),
	)
	return client, nil
}

// RedisStore keeps JSON encoded state values in Redis with a sliding TTL.
type RedisStore[T any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore builds a RedisStore. A zero ttl keeps keys until cleared.
func NewRedisStore[T any](client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore[T] {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore[T]{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore[T]) key(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

// Get loads and decodes the state of a user.
func (s *RedisStore[T]) Get(ctx context.Context, userID int64) (T, error) {
	var value T
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return value, nil
	}
	if err != nil {
		return value, fmt.Errorf("state: redis get: %w", err)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, fmt.Errorf("state: decode %s: %w", s.key(userID), err)
	}
	return value, nil
}

// Set encodes and stores the state of a user.
func (s *RedisStore[T]) Set(ctx context.Context, userID int64, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("state: redis set: %w", err)
	}
	return nil
}

// Clear deletes the state of a user.
func (s *RedisStore[T]) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("state: redis del: %w", err)
	}
	return nil
}
