package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listenRetryDelay = 3 * time.Second

// Listen holds one pooled connection on LISTEN channel and hands every
// notification payload to handle until ctx is cancelled. A dropped
// connection is re-acquired after a short delay.
func Listen(ctx context.Context, pool *pgxpool.Pool, channel string, handle func(payload string)) error {
	for {
		err := listenOnce(ctx, pool, channel, handle)
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("postgres_listen_interrupted", "channel", channel, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(listenRetryDelay):
		}
	}
}

func listenOnce(ctx context.Context, pool *pgxpool.Pool, channel string, handle func(payload string)) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", channel, err)
	}
	slog.Info("postgres_listening", "channel", channel)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		handle(notification.Payload)
	}
}
