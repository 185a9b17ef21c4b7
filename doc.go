// Package topo is a small web framework for server-rendered catalog
// applications. It grew out of a climbing-locations site and keeps that
// shape: declarative routes, session-backed authentication, and
// HTML-first handlers, with every request passing through a single
// dispatch pipeline.
//
// # Dispatch
//
// Each request moves through fixed stages: route resolution, middleware,
// the handler, and exactly one committed response. Handlers write into a
// buffer; nothing reaches the client until the dispatcher commits, so a
// failure halfway through rendering discards the partial page and the
// error boundary produces a clean error response instead.
//
//	app := topo.New(
//	    topo.WithLogger("web", middlewares.RequestIDExtractor()),
//	    topo.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    topo.WithHandlers(handlers.NewSectors(repo)),
//	)
//	err := app.Run(":8080", topo.ShutdownHook(db.Shutdown(pool)))
//
// # Routing
//
// Routes are matched in registration order, first match wins, with
// {name} placeholders capturing exactly one path segment. Routes can be
// declared in code via WithHandlers or in YAML via WithRoutes, where an
// action registry maps declarative names to handlers.
//
// # Sessions and auth
//
// WithSession enables cookie-keyed server-side sessions. Dirty sessions
// are flushed to the store right before the response commits, so a
// client never holds a cookie whose state was lost. Authentication
// rotates the session token to keep fixated pre-login tokens useless.
//
// # Errors
//
// Handlers return errors instead of writing error responses. The
// dispatcher maps *HTTPError values to status codes (or redirects, for
// unauthenticated access), logs server faults, and never leaks internal
// detail to the client.
package topo
