// Package config provides type-safe environment variable loading with
// per-type caching. A .env file is loaded automatically on first use and
// parsing is handled by the caarlos0/env library.
//
//	type StoreConfig struct {
//		ConnURL string `env:"PG_CONN_URL,required"`
//	}
//
//	var cfg StoreConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Each configuration type is parsed once per process lifetime; subsequent
// loads of the same type return the cached value.
package config
