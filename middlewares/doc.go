// Package middlewares provides HTTP middleware for topo applications.
//
// # Request ID
//
// RequestID assigns a unique ID to each request for tracing. It checks
// incoming headers for an existing ID or generates a UUID.
//
//	app := topo.New(
//	    topo.WithLogger("web", middlewares.RequestIDExtractor()),
//	    topo.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover catches handler panics, logs the stack, and converts the panic
// into an internal-server-error response via the app's error boundary.
//
// # Logging
//
// Logging emits one access-log line per committed response with method,
// path, matched route pattern, status, and duration.
//
// # Auth
//
// RequireAuth redirects anonymous requests to the login page, carrying
// the originally requested path in the "next" query parameter so the
// user lands back where they started after signing in. The gate never
// trusts the session alone: the auth service re-checks the user row on
// every request and scrubs sessions whose user has been deleted.
// RequireRole rejects users whose role is not in the allowed set, and
// RequireGuest bounces signed-in users away from guest-only pages such
// as the login form.
//
//	r.GET("/admin/guidebooks", handler,
//	    middlewares.RequireAuth(svc, "/login"),
//	    middlewares.RequireRole(svc, auth.Role("editor")))
//
// # CSRF
//
// CSRF validates the anti-forgery token on every mutating request
// (POST, PUT, PATCH, DELETE). The token is read from the "_csrf" form
// field or the X-CSRF-Token header and checked against the one bound to
// the session; a miss is rejected with 403 before the handler runs.
// Requires topo.WithSession and topo.WithCSRF on the app.
//
// # Rate limiting
//
// RateLimit applies a per-client token bucket. Clients are keyed by
// remote address unless a custom key function is supplied.
//
// # Metrics
//
// Metrics records Prometheus request counters and latency histograms
// labeled by method, matched route pattern, and status.
//
// # CORS
//
// CORS answers preflight requests and attaches cross-origin headers for
// allowed origins.
package middlewares
