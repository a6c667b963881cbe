package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once

	// cache holds one parsed value per configuration type.
	cache sync.Map // reflect.Type -> parsed struct value
)

// Load parses environment variables into cfg. A .env file in the working
// directory is loaded once per process before the first parse; real
// environment variables win over .env entries. Each configuration type is
// parsed only once and cached, so repeated loads of the same type are cheap
// and consistent.
func Load[T any](cfg *T) error {
	dotenvOnce.Do(func() {
		// Missing .env is the normal production case.
		_ = godotenv.Load()
	})

	key := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(key); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: failed to parse %T: %w", *cfg, err)
	}

	cached, _ := cache.LoadOrStore(key, *cfg)
	*cfg = cached.(T)
	return nil
}

// MustLoad is Load that panics on failure. Intended for application startup
// where a missing required variable should stop the process.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
