package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/craghq/topo/pkg/container"
	"github.com/craghq/topo/pkg/cookie"
	"github.com/craghq/topo/pkg/csrf"
	"github.com/craghq/topo/pkg/health"
	"github.com/craghq/topo/pkg/logger"
	"github.com/craghq/topo/pkg/session"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called during setup, in order, so the
// registration order across handlers is the route match order.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithRoutes registers a declarative YAML route source resolved against the
// given registry. Sources load after WithHandlers routes, in option order.
//
// Example:
//
//	//go:embed routes.yaml
//	var routesYAML []byte
//
//	topo.New(
//	    topo.WithRoutes(routesYAML, registry),
//	)
func WithRoutes(data []byte, registry *RouteRegistry) Option {
	return func(a *App) {
		a.routeSources = append(a.routeSources, routeSource{data: data, registry: registry})
	}
}

// WithStrictRoutes turns route-ambiguity warnings into registration panics.
// Use in development and tests to catch shadowed routes early.
func WithStrictRoutes() Option {
	return func(a *App) {
		a.strictRoutes = true
	}
}

// WithContainer attaches a service container. The container's dependency
// graph is dry-run validated during New; registration mistakes surface as a
// startup panic instead of request-time failures.
func WithContainer(c *container.Container) Option {
	return func(a *App) {
		a.container = c
	}
}

// WithViews sets the view renderer used by Context.Render.
func WithViews(r Renderer) Option {
	return func(a *App) {
		a.renderer = r
	}
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled. Files are served with default cache headers.
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
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}

		fileServer := http.StripPrefix(pattern, http.FileServer(http.FS(subFS)))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Block directory listings
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")

			fileServer.ServeHTTP(w, r)
		})

		a.staticRoutes = append(a.staticRoutes, staticRoute{handler, pattern})
	}
}

// WithErrorHandler sets a custom error handler for handler errors.
// Called inside the dispatcher's error boundary after partial output has
// been discarded; whatever it writes becomes the response.
//
// Example:
//
//	topo.WithErrorHandler(func(c topo.Context, err error) error {
//	    return c.Render(topo.AsHTTPError(err).StatusCode(), "error", nil)
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithNotFoundHandler sets a custom 404 handler.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// WithMethodNotAllowedHandler sets a custom 405 handler.
// The Allow header is populated before the handler runs.
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.methodNotAllowedHandler = h
	}
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	topo.WithHealthChecks(
//	    topo.WithReadinessCheck("db", db.Healthcheck(pool)),
//	    topo.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithLogger creates a logger with a component name and optional extractors.
// The component name is added to every log entry for easy filtering.
//
// Example:
//
//	topo.New(
//	    topo.WithLogger("catalog", requestIDExtractor),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCookieOptions configures the cookie manager.
//
// Example:
//
//	topo.New(
//	    topo.WithCookieOptions(
//	        cookie.WithSecret(os.Getenv("COOKIE_SECRET")),
//	        cookie.WithSecure(true),
//	    ),
//	)
func WithCookieOptions(opts ...cookie.Option) Option {
	return func(a *App) {
		a.cookieManager = cookie.New(opts...)
	}
}

// WithSession enables server-side session management.
// A session.Store implementation must be provided (memory, Postgres, Redis).
// Sessions are loaded lazily and flushed once, right before the response
// commits.
//
// Example:
//
//	store := session.NewPostgresStore(pool)
//	topo.New(
//	    topo.WithSession(store,
//	        topo.WithSessionCookieName("__sid"),
//	        topo.WithSessionSecure(true),
//	    ),
//	)
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) {
		a.sessionManager = NewSessionManager(store, opts...)
	}
}

// WithCSRF enables anti-forgery token support. The manager backs
// Context.CSRFToken and the csrf middleware.
func WithCSRF(opts ...csrf.Option) Option {
	return func(a *App) {
		a.csrfManager = csrf.New(opts...)
	}
}
