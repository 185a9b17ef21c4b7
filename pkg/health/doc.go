// Package health provides liveness and readiness probe handlers.
//
// Readiness runs all registered checks in parallel with a shared timeout and
// aggregates the result; liveness always reports OK while the process runs.
// Check functions use the func(context.Context) error signature shared with
// the db and redis packages, so pool healthchecks plug in directly:
//
//	mux.Handle("/health/live", health.LivenessHandler())
//	mux.Handle("/health/ready", health.ReadinessHandler(health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	    "redis":    redis.Healthcheck(client),
//	}, health.WithTimeout(3*time.Second)))
//
// Responses are plain text by default; clients sending Accept:
// application/json or ?format=json receive the per-check breakdown.
package health
