// Package db provides PostgreSQL connectivity and the narrow query
// contract the rest of the application consumes.
//
// This package wraps [github.com/jackc/pgx/v5/pgxpool] for connection
// pooling with retry during startup, and exposes [Querier], a small
// fetch/exec/insert/update surface that keeps handlers and repositories
// ignorant of the driver. Handlers never see pgx types.
//
// # Configuration
//
// All settings are loaded from environment variables:
//
//	DATABASE_CONN_URL           - PostgreSQL connection URL (required)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	DATABASE_MIN_CONNS          - Minimum idle connections (default: 5)
//	DATABASE_HEALTHCHECK_PERIOD - Health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 5s)
//
// # Usage
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	q := db.NewQuerier(pool)
//
//	row, err := q.FetchOne(ctx, "SELECT * FROM regions WHERE id = $1", id)
package db
