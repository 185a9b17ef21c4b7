package middlewares

import (
	"net/http"

	"github.com/craghq/topo/internal"
)

// Default locations the CSRF middleware reads the submitted token from.
const (
	DefaultCSRFFieldName  = "_csrf"
	DefaultCSRFHeaderName = "X-CSRF-Token"
)

// CSRFConfig configures the CSRF middleware.
type CSRFConfig struct {
	FieldName  string // Form field carrying the token
	HeaderName string // Header fallback for non-form clients
}

// CSRFOption configures CSRFConfig.
type CSRFOption func(*CSRFConfig)

// WithCSRFFieldName sets the form field the token is read from.
func WithCSRFFieldName(name string) CSRFOption {
	return func(cfg *CSRFConfig) {
		cfg.FieldName = name
	}
}

// WithCSRFHeaderName sets the header the token falls back to.
func WithCSRFHeaderName(name string) CSRFOption {
	return func(cfg *CSRFConfig) {
		cfg.HeaderName = name
	}
}

// CSRF returns middleware that enforces anti-forgery tokens on mutating
// requests. Safe methods (GET, HEAD, OPTIONS, TRACE) pass through; POST,
// PUT, PATCH, and DELETE must carry the session-bound token in the form
// field or header, and a missing or mismatched token is rejected with 403
// before the handler runs. Requires WithSession and WithCSRF on the app.
func CSRF(opts ...CSRFOption) internal.Middleware {
	cfg := &CSRFConfig{
		FieldName:  DefaultCSRFFieldName,
		HeaderName: DefaultCSRFHeaderName,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	token := internal.NewExtractor(
		internal.FromForm(cfg.FieldName),
		internal.FromHeader(cfg.HeaderName),
	)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				return next(c)
			}

			submitted, _ := token.Extract(c)
			if !c.ValidateCSRF(submitted) {
				return internal.ErrForbidden("invalid or missing csrf token")
			}

			if err := next(c); err != nil {
				return err
			}

			// Under the per-request policy a used token is spent.
			return c.RotateCSRF()
		}
	}
}
