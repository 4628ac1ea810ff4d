package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gymcore/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	redisIdempotencyPrefix = "idempotency:"
	redisIdempotencyOpTime = 2 * time.Second
)

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisIdempotencyStore shares replayable responses between replicas. Redis
// failures degrade to "not cached" rather than failing the request.
type RedisIdempotencyStore struct {
	rdb redisKV
	ttl time.Duration
	log *logger.Logger
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl, log: log}
}

type storedResponse struct {
	StatusCode int         `json:"status"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (s *RedisIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisIdempotencyOpTime)
	defer cancel()

	raw, err := s.rdb.Get(ctx, redisIdempotencyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("Failed to read idempotency key", "key", key, "error", err)
		}
		return nil, false
	}

	var stored storedResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.log.Warn("Discarding corrupt idempotency entry", "key", key, "error", err)
		return nil, false
	}
	return &CachedResponse{
		StatusCode: stored.StatusCode,
		Headers:    stored.Headers,
		Body:       stored.Body,
		CreatedAt:  stored.CreatedAt,
	}, true
}

func (s *RedisIdempotencyStore) Set(key string, response *CachedResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), redisIdempotencyOpTime)
	defer cancel()

	response.CreatedAt = time.Now().UTC()
	payload, err := json.Marshal(storedResponse{
		StatusCode: response.StatusCode,
		Headers:    response.Headers,
		Body:       response.Body,
		CreatedAt:  response.CreatedAt,
	})
	if err != nil {
		s.log.Warn("Failed to encode idempotency entry", "key", key, "error", err)
		return
	}
	if err := s.rdb.Set(ctx, redisIdempotencyPrefix+key, payload, s.ttl).Err(); err != nil {
		s.log.Warn("Failed to store idempotency key", "key", key, "error", err)
	}
}

// Stop is a no-op; the client is closed with the rest of the connections.
func (s *RedisIdempotencyStore) Stop() {}
