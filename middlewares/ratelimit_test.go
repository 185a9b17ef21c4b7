package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/craghq/topo/internal"
	"github.com/craghq/topo/middlewares"
)

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("burst exhaustion yields 429", func(t *testing.T) {
		t.Parallel()

		app := newApp("/x", okHandler,
			middlewares.RateLimit(middlewares.WithRateLimit(1, 1)))

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"

		first := doRequest(app, req)
		require.Equal(t, http.StatusOK, first.Code)

		second := doRequest(app, req)
		require.Equal(t, http.StatusTooManyRequests, second.Code)
		require.Equal(t, "1", second.Header().Get("Retry-After"))
	})

	t.Run("clients are limited independently", func(t *testing.T) {
		t.Parallel()

		app := newApp("/x", okHandler,
			middlewares.RateLimit(middlewares.WithRateLimit(1, 1)))

		a := httptest.NewRequest(http.MethodGet, "/x", nil)
		a.RemoteAddr = "10.0.0.1:1234"
		b := httptest.NewRequest(http.MethodGet, "/x", nil)
		b.RemoteAddr = "10.0.0.2:1234"

		require.Equal(t, http.StatusOK, doRequest(app, a).Code)
		require.Equal(t, http.StatusOK, doRequest(app, b).Code)
	})

	t.Run("custom key function", func(t *testing.T) {
		t.Parallel()

		app := newApp("/x", okHandler,
			middlewares.RateLimit(
				middlewares.WithRateLimit(1, 1),
				middlewares.WithRateLimitKeyFunc(func(c internal.Context) string {
					return c.Header("X-API-Key")
				}),
			))

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-API-Key", "abc")

		require.Equal(t, http.StatusOK, doRequest(app, req).Code)
		require.Equal(t, http.StatusTooManyRequests, doRequest(app, req).Code)

		other := httptest.NewRequest(http.MethodGet, "/x", nil)
		other.Header.Set("X-API-Key", "xyz")
		require.Equal(t, http.StatusOK, doRequest(app, other).Code)
	})
}
