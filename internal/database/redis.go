package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

var Rdb *redis.Client

func ConnectRedis(ctx context.Context, addr, password string, db int) error {
	if addr == "" {
		addr = "localhost:6379"
	}

	Rdb = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("unable to ping redis: %w", err)
	}

	slog.Info("redis_connected", "addr", addr, "db", db)
	return nil
}

func CloseRedis() {
	if Rdb != nil {
		_ = Rdb.Close()
	}
}
