package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds the initial connection attempts.  The delay doubles
// after each failed attempt.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// Open opens a Postgres connection and verifies it with a ping, retrying
// with exponential backoff per the policy.  Each ping is bounded by a
// 5-second deadline so a hung database cannot stall startup forever.
func Open(ctx context.Context, url string, policy RetryPolicy, logger *zap.Logger) (*sql.DB, error) {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 500 * time.Millisecond
	}

	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	delay := policy.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = conn.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return conn, nil
		}
		logger.Warn("database ping failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", policy.Attempts),
			zap.Error(lastErr))
		if attempt == policy.Attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			conn.Close()
			return nil, ctx.Err()
		}
		delay *= 2
	}
	conn.Close()
	return nil, fmt.Errorf("connect after %d attempts: %w", policy.Attempts, lastErr)
}
