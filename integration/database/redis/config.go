package redis

import "time"

// Config holds Redis connection settings with environment variable mapping.
// Both redis:// and rediss:// (TLS) URL schemes are supported.
type Config struct {
	ConnectionURL string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`

	// KeyPrefix namespaces every key the session store writes.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"token:"`
}
