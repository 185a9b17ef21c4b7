// Package redis provides Redis client utilities for topo applications.
//
// This package wraps [github.com/redis/go-redis/v9] to provide connection
// pooling, health checks, and graceful shutdown with production defaults.
// It is the connection layer behind the Redis session store.
//
// # Usage
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"),
//	    redis.WithPoolSize(20),
//	    redis.WithRetry(5, 3*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// Use [Healthcheck] with the health package and [Shutdown] with
// topo.WithShutdownHook for lifecycle integration:
//
//	app := topo.New(
//	    topo.WithShutdownHook(redis.Shutdown(client)),
//	)
//
// The package defines sentinel errors for common failure modes:
// [ErrEmptyConnectionURL], [ErrFailedToParseURL], [ErrConnectionFailed],
// and [ErrHealthcheckFailed]. Errors are wrapped with [errors.Join] to
// preserve the original cause.
package redis
