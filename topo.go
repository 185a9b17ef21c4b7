package topo

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/craghq/topo/internal"
	"github.com/craghq/topo/pkg/container"
	"github.com/craghq/topo/pkg/cookie"
	"github.com/craghq/topo/pkg/csrf"
	"github.com/craghq/topo/pkg/health"
	"github.com/craghq/topo/pkg/logger"
	"github.com/craghq/topo/pkg/session"
)

// Type aliases - public API
type (
	// App orchestrates the application lifecycle.
	// It manages routing, request dispatch, and graceful shutdown.
	App = internal.App

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// HTTPError is the structured error the dispatch boundary renders.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// Renderer renders named templates to the response.
	Renderer = internal.Renderer

	// Component is the interface for self-rendering views.
	Component = internal.Component

	// ResolvedRoute carries the matched pattern and captured parameters.
	ResolvedRoute = internal.ResolvedRoute

	// RouteDecl is one declarative route record.
	RouteDecl = internal.RouteDecl

	// RouteRegistry maps declarative action and middleware names to code.
	RouteRegistry = internal.RouteRegistry

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogger to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor

	// CookieOption configures the cookie manager.
	CookieOption = cookie.Option

	// CSRFOption configures the anti-forgery token manager.
	CSRFOption = csrf.Option

	// SessionOption configures the session manager.
	SessionOption = internal.SessionOption

	// Session represents a user session.
	Session = session.Session

	// SessionStore defines the interface for session persistence.
	SessionStore = session.Store

	// ResponseWriter is the buffered writer behind every response.
	ResponseWriter = internal.ResponseWriter

	// Extractor tries multiple request sources in order.
	Extractor = internal.Extractor

	// ExtractorSource extracts a value from the request context.
	ExtractorSource = internal.ExtractorSource
)

// New creates a new application with the given options. The dependency
// graph registered via WithContainer is validated here; an unresolvable
// graph is a startup failure, not a request-time one.
//
// Example:
//
//	app := topo.New(
//	    topo.WithMiddleware(middlewares.RequestID()),
//	    topo.WithHandlers(
//	        handlers.NewAuth(svc),
//	        handlers.NewSectors(repo),
//	    ),
//	)
//
//	err := app.Run(":8080", topo.Logger(log))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// NewRouteRegistry creates an empty registry for declarative routes.
func NewRouteRegistry() *RouteRegistry {
	return internal.NewRouteRegistry()
}

// App options

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called during setup.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithRoutes registers routes from a declarative YAML document. Actions
// and middleware are resolved by name through the registry; records take
// effect in file order, after any WithHandlers routes.
//
// Example:
//
//	//go:embed routes.yaml
//	var routesYAML []byte
//
//	reg := topo.NewRouteRegistry().
//	    Action("sectors.show", showSector).
//	    Middleware("auth", middlewares.RequireAuth(svc, "/login"))
//
//	topo.New(topo.WithRoutes(routesYAML, reg))
func WithRoutes(data []byte, registry *RouteRegistry) Option {
	return internal.WithRoutes(data, registry)
}

// WithStrictRoutes makes registration-time route shadowing a panic
// instead of a warning.
func WithStrictRoutes() Option {
	return internal.WithStrictRoutes()
}

// WithContainer attaches a dependency container. New validates the
// container's full graph and panics on unresolvable dependencies.
func WithContainer(c *container.Container) Option {
	return internal.WithContainer(c)
}

// WithViews sets the template renderer backing Context.Render.
func WithViews(r Renderer) Option {
	return internal.WithViews(r)
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	topo.New(
//	    topo.WithStaticFiles("/static/", assets, "public"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithErrorHandler sets a custom error handler for handler errors.
// Called when a handler returns a non-nil error.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFoundHandler sets a custom 404 handler.
func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

// WithMethodNotAllowedHandler sets a custom 405 handler.
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return internal.WithMethodNotAllowedHandler(h)
}

// WithHealthChecks enables health check endpoints.
// Liveness (/health/live): always OK while the process runs.
// Readiness (/health/ready): runs all configured checks.
//
// Example:
//
//	topo.WithHealthChecks(
//	    topo.WithReadinessCheck("db", db.Healthcheck(pool)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLogger creates a logger with a component name and optional extractors.
// Extractors pull values from context (e.g., request_id) into every record.
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithCookieOptions configures the cookie manager.
//
// Example:
//
//	topo.New(
//	    topo.WithCookieOptions(
//	        topo.WithCookieSecret(os.Getenv("COOKIE_SECRET")),
//	        topo.WithCookieSecure(true),
//	    ),
//	)
func WithCookieOptions(opts ...CookieOption) Option {
	return internal.WithCookieOptions(opts...)
}

// WithSession enables server-side session management. Sessions are loaded
// lazily and flushed automatically before the response commits.
//
// Example:
//
//	topo.New(
//	    topo.WithSession(store,
//	        topo.WithSessionMaxAge(86400*30),
//	    ),
//	)
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// WithCSRF enables anti-forgery tokens, backing Context.CSRFToken and the
// middlewares.CSRF guard.
func WithCSRF(opts ...CSRFOption) Option {
	return internal.WithCSRF(opts...)
}

// Health check options

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Run options

// Logger sets the runtime logger.
// If nil, logging is disabled.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the timeout for graceful shutdown.
// This applies to both the HTTP server and shutdown hooks.
// Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook registers a function to run during server startup, before
// serving requests. A failing hook stops the server.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a cleanup function to run during shutdown.
// Hooks are called in the order they were registered.
//
// Example:
//
//	topo.ShutdownHook(db.Shutdown(pool))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets a custom base context for signal handling.
// Defaults to context.Background().
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Errors

// NewHTTPError creates an HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

// WithRequestID attaches a request tracking ID to the error.
func WithRequestID(id string) HTTPErrorOption {
	return internal.WithRequestID(id)
}

// WithError attaches the underlying cause for logging. It is never
// exposed in the response body.
func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

// WithRedirect makes the error resolve as a redirect to the given URL.
func WithRedirect(url string) HTTPErrorOption {
	return internal.WithRedirect(url)
}

// WithHeader attaches a response header that survives the error boundary's
// discard of the failed handler's output.
func WithHeader(name, value string) HTTPErrorOption {
	return internal.WithHeader(name, value)
}

// Convenience constructors for common HTTP errors.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

// ErrUnauthenticated redirects to the login entry point. The originally
// requested path travels in the "next" query parameter.
func ErrUnauthenticated(loginURL string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnauthenticated(loginURL, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

func ErrMethodNotAllowed(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrMethodNotAllowed(message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrConflict(message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnprocessable(message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

// IsHTTPError reports whether err is an *HTTPError.
func IsHTTPError(err error) bool {
	return internal.IsHTTPError(err)
}

// AsHTTPError extracts the HTTPError from an error if present.
// Returns nil if the error is not an HTTPError.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// Routing errors for checking return values.
var (
	ErrRouteNotFound     = internal.ErrRouteNotFound
	ErrMethodMismatch    = internal.ErrMethodMismatch
	ErrUnknownAction     = internal.ErrUnknownAction
	ErrUnknownMiddleware = internal.ErrUnknownMiddleware
)

// Context helpers

// ContextValue retrieves a typed value from the context.
// Returns the zero value of T if the key is not found or type assertion fails.
//
// Example:
//
//	type tenantKey struct{}
//
//	tenant := topo.ContextValue[string](c, tenantKey{})
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Param returns a typed route parameter.
// Returns the zero value of T on missing parameter or conversion failure.
//
// Example:
//
//	id := topo.Param[int64](c, "id")
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Param[T](c, name)
}

// Query returns a typed query parameter.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns a typed query parameter, falling back to
// defaultValue on missing parameter or conversion failure.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	return internal.QueryDefault[T](c, name, defaultValue)
}

// Extractors

// NewExtractor creates an Extractor that tries the given sources in order.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return internal.NewExtractor(sources...)
}

// FromHeader returns a source that reads from a request header.
func FromHeader(name string) ExtractorSource {
	return internal.FromHeader(name)
}

// FromQuery returns a source that reads from a query parameter.
func FromQuery(name string) ExtractorSource {
	return internal.FromQuery(name)
}

// FromCookie returns a source that reads from a plain cookie.
func FromCookie(name string) ExtractorSource {
	return internal.FromCookie(name)
}

// FromParam returns a source that reads from a URL placeholder.
func FromParam(name string) ExtractorSource {
	return internal.FromParam(name)
}

// FromForm returns a source that reads from a form field.
func FromForm(name string) ExtractorSource {
	return internal.FromForm(name)
}

// FromSession returns a source that reads from a session value.
func FromSession(key string) ExtractorSource {
	return internal.FromSession(key)
}

// Cookie options

// WithCookieSecret sets the secret for cookie signing.
// Must be at least 32 bytes.
func WithCookieSecret(secret string) CookieOption {
	return cookie.WithSecret(secret)
}

// WithCookieDomain sets the cookie domain.
func WithCookieDomain(domain string) CookieOption {
	return cookie.WithDomain(domain)
}

// WithCookiePath sets the cookie path.
func WithCookiePath(path string) CookieOption {
	return cookie.WithPath(path)
}

// WithCookieSecure sets the Secure flag.
func WithCookieSecure(secure bool) CookieOption {
	return cookie.WithSecure(secure)
}

// WithCookieHTTPOnly sets the HttpOnly flag.
func WithCookieHTTPOnly(httpOnly bool) CookieOption {
	return cookie.WithHTTPOnly(httpOnly)
}

// WithCookieSameSite sets the SameSite attribute.
func WithCookieSameSite(ss http.SameSite) CookieOption {
	return cookie.WithSameSite(ss)
}

// Cookie errors for checking return values.
var (
	ErrCookieNotFound = cookie.ErrNotFound
	ErrCookieNoSecret = cookie.ErrNoSecret
)

// Session options

// WithSessionCookieName sets the session cookie name.
// Defaults to "__sid".
func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

// WithSessionMaxAge sets the session max age in seconds.
// Defaults to 30 days.
func WithSessionMaxAge(seconds int) SessionOption {
	return internal.WithSessionMaxAge(seconds)
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

// WithSessionPath sets the session cookie path.
// Defaults to "/".
func WithSessionPath(path string) SessionOption {
	return internal.WithSessionPath(path)
}

// WithSessionSecure sets the session cookie Secure flag.
// Should be true in production behind HTTPS.
func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

// WithSessionHTTPOnly sets the session cookie HttpOnly flag.
// Defaults to true.
func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return internal.WithSessionHTTPOnly(httpOnly)
}

// WithSessionSameSite sets the session cookie SameSite attribute.
// Defaults to SameSiteLaxMode.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// Session errors for checking return values.
var (
	ErrSessionNotConfigured = session.ErrNotConfigured
	ErrSessionNotFound      = session.ErrNotFound
	ErrSessionExpired       = session.ErrExpired
	ErrSessionInvalidToken  = session.ErrInvalidToken
)

// SessionValue is a typed helper to retrieve session values.
// Returns an error if the key doesn't exist or type assertion fails.
//
// Example:
//
//	theme, err := topo.SessionValue[string](sess, "theme")
func SessionValue[T any](sess *Session, key string) (T, error) {
	return session.Value[T](sess, key)
}

// SessionValueOr is a typed helper that returns a default value if the key
// doesn't exist or type assertion fails.
func SessionValueOr[T any](sess *Session, key string, defaultVal T) T {
	return session.ValueOr(sess, key, defaultVal)
}
