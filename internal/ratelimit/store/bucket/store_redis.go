package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"carewatch/internal/ratelimit/models"
)

const keyPrefix = "carewatch:ratelimit:"

// allowScript keeps one sorted set per key scored by request time in
// milliseconds. It returns {allowed, remaining, reset_at_ms}.
var allowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
local reset = now + window
if #oldest > 0 then
  reset = tonumber(oldest[2]) + window
end
if count < limit then
  redis.call('ZADD', KEYS[1], now, ARGV[4])
  redis.call('PEXPIRE', KEYS[1], window)
  return {1, limit - count - 1, reset}
end
return {0, 0, reset}
`)

// RedisBucketStore shares sliding windows across server replicas.
type RedisBucketStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient) *RedisBucketStore {
	return &RedisBucketStore{client: client, now: time.Now}
}

func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := s.now()
	res, err := allowScript.Run(ctx, s.client, []string{keyPrefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit check: unexpected reply %v", res)
	}
	result := &models.RateLimitResult{
		Allowed:   res[0] == 1,
		Limit:     limit,
		Remaining: int(res[1]),
		ResetAt:   time.UnixMilli(res[2]),
	}
	if !result.Allowed {
		result.RetryAfter = retryAfter(now, result.ResetAt)
	}
	return result, nil
}

func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
