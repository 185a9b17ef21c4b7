package middlewares

import (
	"fmt"
	"runtime"

	"github.com/craghq/topo/internal"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	StackSize         int  // Max stack trace size (default: 4096)
	DisablePrintStack bool // Disable stack trace in logs
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.StackSize = size
	}
}

// WithRecoverDisablePrintStack disables including stack trace in logs.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisablePrintStack = true
	}
}

// Recover returns middleware that recovers from handler panics. The panic
// value and stack are logged; the request resolves as a generic internal
// server error through the app's error boundary, so any buffered partial
// output is discarded and the panic never leaks into the response body.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &RecoverConfig{
		StackSize: DefaultStackSize,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					if cfg.DisablePrintStack {
						c.LogError("panic recovered", "panic", r)
					} else {
						stack := make([]byte, cfg.StackSize)
						n := runtime.Stack(stack, false)
						c.LogError("panic recovered", "panic", r, "stack", string(stack[:n]))
					}

					err = internal.ErrInternal("internal server error",
						internal.WithError(fmt.Errorf("panic: %v", r)),
						internal.WithRequestID(RequestIDFromContext(c.Request().Context())),
					)
				}
			}()

			return next(c)
		}
	}
}
