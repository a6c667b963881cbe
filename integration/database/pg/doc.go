// Package pg provides PostgreSQL connection management and the relational
// session store for tokenkit.
//
// Connect establishes a pgxpool with bounded retry and ping verification;
// Migrate applies the embedded goose migrations that create the sessions
// table; Healthcheck returns a probe for readiness endpoints.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		log.Fatal(err)
//	}
//
//	store, err := pg.NewSessionStore(pool)
//
// SessionStore implements session.Store. Its InTx starts a read-committed
// transaction and threads it through the context, so the manager's
// insert-then-evict sequence executes atomically. A caller holding its own
// pgx.Tx can pass it with WithTx; the store joins it instead of opening a
// new one, which is how session creation composes with surrounding writes
// (for example creating a user and their first session in one commit).
package pg
