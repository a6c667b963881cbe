package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrEmptyConnectionURL is returned when no connection URL is
	// configured. Set REDIS_URL.
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")

	// ErrFailedToParseURL is returned when the connection URL is not a
	// valid redis:// or rediss:// URL.
	ErrFailedToParseURL = errors.New("redis: failed to parse connection URL")

	// ErrNotReady is returned when Redis does not answer a ping within the
	// configured retries.
	ErrNotReady = errors.New("redis: not ready")

	// ErrHealthcheckFailed is returned when the connection is not available.
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)

// Connect creates a Redis client and verifies connectivity with a ping,
// retrying transient failures up to cfg.RetryAttempts.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}

	client := redis.NewClient(opts)

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				_ = client.Close()
				return nil, errors.Join(ErrNotReady, ctx.Err())
			case <-time.After(interval):
			}
		}

		if err := client.Ping(ctx).Err(); err != nil {
			lastErr = err
			continue
		}
		return client, nil
	}

	_ = client.Close()
	return nil, errors.Join(ErrNotReady, lastErr)
}

// Healthcheck returns a probe function suitable for readiness endpoints.
func Healthcheck(client *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
