package middlewares

import (
	"time"

	"github.com/craghq/topo/internal"
)

// Logging returns middleware that writes one access-log line per request
// with method, path, matched route pattern, status, duration, and response
// size. Errors pass through untouched; the dispatcher's error boundary owns
// failure logging, so a failed request is not logged twice here.
func Logging() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				return err
			}

			w := c.ResponseWriter()
			c.LogInfo("request completed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"route", c.Route(),
				"status", w.Status(),
				"bytes", w.Size(),
				"duration", time.Since(start).String(),
			)

			return nil
		}
	}
}
