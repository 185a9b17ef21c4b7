package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/craghq/topo/internal"
	"github.com/craghq/topo/middlewares"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("wildcard allows any origin", func(t *testing.T) {
		t.Parallel()

		app := newApp("/x", okHandler, middlewares.CORS())

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://example.com")

		w := doRequest(app, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight answered without running handler", func(t *testing.T) {
		t.Parallel()

		ran := false
		app := newApp("/x", func(c internal.Context) error {
			ran = true
			return nil
		}, middlewares.CORS())

		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "https://example.com")

		w := doRequest(app, req)
		require.Equal(t, http.StatusNoContent, w.Code)
		require.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
		require.False(t, ran)
	})

	t.Run("disallowed origin gets no cors headers", func(t *testing.T) {
		t.Parallel()

		app := newApp("/x", okHandler,
			middlewares.CORS(middlewares.WithAllowOrigins("https://topo.example")))

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://evil.example")

		w := doRequest(app, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("credentials echo the origin", func(t *testing.T) {
		t.Parallel()

		app := newApp("/x", okHandler,
			middlewares.CORS(middlewares.WithAllowCredentials()))

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://topo.example")

		w := doRequest(app, req)
		require.Equal(t, "https://topo.example", w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})
}
