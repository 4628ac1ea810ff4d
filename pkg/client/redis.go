package client

import (
	"context"
	"time"

	"gymcore/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(log *logger.Logger, addr, password string, db int, connTimeout time.Duration) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: connTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to ping Redis", "addr", addr, "error", err)
	}

	log.Info("Successfully connected to Redis", "addr", addr, "db", db)
	return rdb
}
