// Package redis provides Redis client initialization, health checking, and a
// Redis-backed session store for token lifecycle management.
//
// This package wraps the go-redis client with connection validation, retry
// logic, and environment-driven configuration, and layers a session.Store
// implementation on top for deployments that keep session state in Redis
// instead of Postgres.
//
// # Key Features
//
//   - Connect: Creates a Redis client with retry logic and connection verification
//   - Healthcheck: Returns a health check function for monitoring Redis connectivity
//   - SessionStore: session.Store implementation backed by hashes and sorted sets
//
// Connection establishment validates the Redis URL format, attempts connection
// with retries, and verifies connectivity with a ping operation before
// returning the client.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		ConnectionURL string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		KeyPrefix     string        `env:"REDIS_KEY_PREFIX" envDefault:"token:"`
//	}
//
// Both redis:// and rediss:// (TLS) URL schemes are supported.
//
// # Data Layout
//
// Session records are stored as hashes keyed by session id under the
// configured prefix. A per-owner sorted set scored by creation time answers
// the recency queries the session manager runs during rotation, and a global
// sorted set of expiry timestamps backs the cleanup sweep. Session keys carry
// a Redis TTL matching their expiry, so expired records also age out on their
// own between sweeps.
//
// # Usage Example
//
//	cfg := redis.Config{ConnectionURL: "redis://localhost:6379/0", KeyPrefix: "token:"}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	store, err := redis.NewSessionStore(client, cfg.KeyPrefix)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mgr, err := session.New[User](store, session.WithResolver[User](resolver))
//
// # Consistency Notes
//
// Redis offers no interactive multi-key transactions, so SessionStore.InTx
// serializes callback bodies with an in-process mutex. Within a single
// process the rotation count-check and insert are fully serialized. Across
// processes concurrent rotation can transiently exceed the session bound by
// the number of racing writers, which the next rotation prunes.
package redis
