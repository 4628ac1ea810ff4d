package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "gymcore/internal/bookings/errors"
	"gymcore/pkg/config"

	"github.com/redis/go-redis/v9"
)

const redisLockPrefix = "lock:booking:"

// releaseScript deletes KEYS[1] only while it still holds ARGV[1].
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// redisLocker is the subset of redis.Cmdable the lock store needs.
type redisLocker interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

type redisBookingLockRepository struct {
	cfg *config.Config
	rdb redisLocker
}

// NewRedisBookingLockRepository keeps booking locks in Redis. The key holds
// the owner token and expires with its TTL, so there is no takeover path.
func NewRedisBookingLockRepository(cfg *config.Config) BookingLockRepository {
	return newRedisBookingLockRepository(cfg, cfg.Client.Redis)
}

func newRedisBookingLockRepository(cfg *config.Config, rdb redisLocker) *redisBookingLockRepository {
	return &redisBookingLockRepository{cfg: cfg, rdb: rdb}
}

func (r *redisBookingLockRepository) Acquire(ctx context.Context, key, owner string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ok, err := r.rdb.SetNX(ctx, redisLockPrefix+key, owner, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return bookingserrors.ErrLockHeld
	}
	return nil
}

func (r *redisBookingLockRepository) Release(ctx context.Context, key, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	deleted, err := r.rdb.Eval(ctx, releaseScript, []string{redisLockPrefix + key}, owner).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	if deleted == 0 {
		return bookingserrors.ErrLockNotOwned
	}
	return nil
}
