package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/craghq/topo/internal"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// timeoutContextKey stores the deadline-bound context.
type timeoutContextKey struct{}

// Timeout returns middleware that bounds handler execution time. On expiry
// a plain 504 is committed to the transport immediately; the abandoned
// handler goroutine keeps running, but every write it makes from then on
// is dropped by the buffered writer, so nothing can interleave into the
// 504 body. Long operations should watch TimeoutContext(c).Done() to stop
// early.
func Timeout(timeout time.Duration) internal.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.Set(timeoutContextKey{}, ctx)

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					c.LogWarn("request timeout", "timeout", timeout.String())
					return c.ResponseWriter().CommitError(http.StatusGatewayTimeout, "gateway timeout")
				}
				return ctx.Err()
			}
		}
	}
}

// TimeoutContext returns the deadline-bound context installed by Timeout,
// or the plain request context when the middleware is not in the chain.
func TimeoutContext(c internal.Context) context.Context {
	if v, ok := c.Get(timeoutContextKey{}).(context.Context); ok {
		return v
	}
	return c.Request().Context()
}
