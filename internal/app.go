package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/craghq/topo/pkg/container"
	"github.com/craghq/topo/pkg/cookie"
	"github.com/craghq/topo/pkg/csrf"
	"github.com/craghq/topo/pkg/health"
	"github.com/craghq/topo/pkg/logger"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App is the application dispatcher. It drives each request through a fixed
// sequence — receive, route, run middleware, invoke the handler, respond —
// and guarantees exactly one committed response per request, with a single
// error boundary deciding what any failure becomes on the wire.
//
// App is immutable after creation; all configuration happens via New.
type App struct {
	routes                  *routeTable
	errorHandler            ErrorHandler
	notFoundHandler         HandlerFunc
	methodNotAllowedHandler HandlerFunc
	healthConfig            *healthConfig
	logger                  *slog.Logger
	cookieManager           *cookie.Manager
	sessionManager          *SessionManager
	csrfManager             *csrf.Manager
	renderer                Renderer
	container               *container.Container
	middlewares             []Middleware
	handlers                []Handler
	routeSources            []routeSource
	staticRoutes            []staticRoute
	strictRoutes            bool
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

// routeSource is a pending declarative route load.
type routeSource struct {
	data     []byte
	registry *RouteRegistry
}

// New creates a new application with the given options.
//
// If a service container was supplied, its full graph is dry-run validated
// here: a missing or cyclic dependency is a startup panic, never a
// request-time 500.
func New(opts ...Option) *App {
	a := &App{
		logger:        logger.NewNope(),
		cookieManager: cookie.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.sessionManager != nil {
		a.sessionManager.SetLogger(a.logger)
	}

	if a.container != nil {
		if err := a.container.Validate(); err != nil {
			panic(fmt.Sprintf("topo: container validation failed: %v", err))
		}
	}

	a.setupRoutes()
	return a
}

// Container returns the service container, or nil if none was configured.
func (a *App) Container() *container.Container {
	return a.container
}

// Run starts the HTTP server and blocks until shutdown.
//
// Example:
//
//	app := topo.New(
//	    topo.WithHandlers(handlers.NewCatalog(repo)),
//	)
//	err := app.Run(":8080", topo.Logger(log))
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)

	return runServer(runtimeConfig{
		handler:         a,
		address:         addr,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    cfg.startupHooks,
		shutdownHooks:   cfg.shutdownHooks,
		baseCtx:         cfg.baseCtx,
	})
}

// setupRoutes builds the route table from handlers and declarative sources.
func (a *App) setupRoutes() {
	a.routes = newRouteTable(a.logger, a.strictRoutes)
	r := &scopedRouter{table: a.routes}

	if a.healthConfig != nil {
		r.GET(a.healthConfig.livenessPath, adaptHTTP(health.LivenessHandler()))
		r.GET(a.healthConfig.readinessPath, adaptHTTP(health.ReadinessHandler(a.healthConfig.checks)))
	}

	for _, h := range a.handlers {
		h.Routes(r)
	}

	for _, src := range a.routeSources {
		if err := LoadRoutes(r, src.data, src.registry); err != nil {
			panic(fmt.Sprintf("topo: %v", err))
		}
	}
}

// adaptHTTP wraps a plain http.Handler as a HandlerFunc.
func adaptHTTP(h http.Handler) HandlerFunc {
	return func(c Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// ServeHTTP dispatches one request through the full state sequence.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Static assets bypass the buffered dispatcher entirely.
	for _, sr := range a.staticRoutes {
		if strings.HasPrefix(r.URL.Path, sr.pattern) {
			sr.handler.ServeHTTP(w, r)
			return
		}
	}

	c := newContext(w, r, a)
	a.dispatch(c)

	if err := c.responseWriter.Commit(); err != nil {
		a.logger.ErrorContext(r.Context(), "failed to write response",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}

// dispatch runs routing, middleware, and the handler, funneling every
// failure into handleError. The response stays buffered throughout; the
// caller commits it exactly once.
func (a *App) dispatch(c *requestContext) {
	r := c.request

	resolved, allowed, err := a.routes.Resolve(r.Method, r.URL.Path)
	switch {
	case errors.Is(err, ErrRouteNotFound):
		if handlerErr := a.runNotFound(c); handlerErr != nil {
			a.handleError(c, handlerErr)
		}
		return
	case errors.Is(err, ErrMethodMismatch):
		c.SetHeader("Allow", strings.Join(allowed, ", "))
		if handlerErr := a.runMethodNotAllowed(c, allowed); handlerErr != nil {
			a.handleError(c, handlerErr)
		}
		return
	}

	c.setRoute(resolved)

	// Global middleware wraps outermost, then route middleware, then the
	// handler. A middleware may write a response and return nil to stop the
	// chain without treating it as a failure.
	h := resolved.handler
	for i := len(resolved.middleware) - 1; i >= 0; i-- {
		h = resolved.middleware[i](h)
	}
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}

	if err := h(c); err != nil {
		a.handleError(c, err)
	}
}

func (a *App) runNotFound(c *requestContext) error {
	if a.notFoundHandler != nil {
		return a.notFoundHandler(c)
	}
	return ErrNotFound("page not found")
}

func (a *App) runMethodNotAllowed(c *requestContext, allowed []string) error {
	if a.methodNotAllowedHandler != nil {
		return a.methodNotAllowedHandler(c)
	}
	// The Allow header rides on the error: the boundary discards whatever
	// was set on the writer before it renders the 405.
	return ErrMethodNotAllowed("method not allowed",
		WithHeader("Allow", strings.Join(allowed, ", ")))
}

// handleError is the single boundary that turns a failure into a response.
// Buffered partial output from the failed handler is discarded first, so
// the client never sees a mixed partial body.
func (a *App) handleError(c *requestContext, err error) {
	rw := c.responseWriter
	if rw.Committed() {
		return
	}
	rw.Discard()

	if a.errorHandler != nil {
		if handlerErr := a.errorHandler(c, err); handlerErr == nil && rw.Written() {
			return
		}
		// The custom handler failed or wrote nothing; fall through to the
		// default mapping with a clean buffer.
		rw.Discard()
	}

	a.writeErrorResponse(c, err)
}

// writeErrorResponse maps an error to its wire form.
func (a *App) writeErrorResponse(c *requestContext, err error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = ErrInternal("internal server error", WithError(err))
	}

	if httpErr.Code >= http.StatusInternalServerError {
		a.logger.ErrorContext(c.Context(), "request failed",
			slog.String("method", c.request.Method),
			slog.String("path", c.request.URL.Path),
			slog.String("route", c.route),
			slog.Any("params", c.params),
			slog.String("user_id", c.UserID()),
			slog.Any("error", err),
		)
	}

	for name, value := range httpErr.Headers {
		c.SetHeader(name, value)
	}

	if httpErr.RedirectTo != "" {
		_ = c.Redirect(httpErr.Code, httpErr.RedirectTo)
		return
	}

	// Never leak internals: the body carries only the curated message.
	_ = c.String(httpErr.Code, httpErr.Message)
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
//
// Example:
//
//	topo.WithReadinessCheck("db", db.Healthcheck(pool))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
