package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	red "github.com/redis/go-redis/v9"
)

const defaultRateLimitPrefix = "feed:ratelimit"

// RateLimitStore persists sliding-window attempts in Redis sorted sets, scored
// by the attempt timestamp in nanoseconds.
type RateLimitStore struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewRateLimitStore constructs the store. The TTL should exceed the largest
// window the middleware enforces so idle keys expire on their own.
func NewRateLimitStore(client *red.Client, ttl time.Duration) *RateLimitStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RateLimitStore{client: client, prefix: defaultRateLimitPrefix, ttl: ttl}
}

// RecordAttempt stores the attempt timestamp and refreshes the key TTL.
func (s *RateLimitStore) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := s.key(identifier)
	member := red.Z{Score: float64(at.UnixNano()), Member: at.UnixNano()}

	if err := s.client.ZAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis zadd: %w", err)
	}

	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis expire: %w", err)
	}

	return nil
}

// CountAttempts returns how many attempts occurred within the window ending at reference time.
func (s *RateLimitStore) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	key := s.key(identifier)
	min := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	max := strconv.FormatInt(reference.UnixNano(), 10)

	count, err := s.client.ZCount(ctx, key, min, max).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcount: %w", err)
	}

	return int(count), nil
}

// TrimWindow removes attempts older than the provided window relative to reference time.
func (s *RateLimitStore) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	key := s.key(identifier)
	threshold := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)

	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", threshold).Err(); err != nil {
		return fmt.Errorf("redis zremrangebyscore: %w", err)
	}

	return nil
}

func (s *RateLimitStore) key(identifier string) string {
	return s.prefix + ":" + identifier
}
