package internal

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedHelpers(t *testing.T) {
	t.Parallel()

	// Drives a request through the app so the helpers see real router
	// captures and query strings.
	serve := func(t *testing.T, path, reqPath string, h HandlerFunc) {
		t.Helper()
		app := New(WithHandlers(routesFunc(func(r Router) {
			r.GET(path, h)
		})))
		w := doRequest(app, http.MethodGet, reqPath)
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("typed param", func(t *testing.T) {
		t.Parallel()

		serve(t, "/routes/{id}", "/routes/42", func(c Context) error {
			require.Equal(t, int64(42), Param[int64](c, "id"))
			require.Equal(t, "42", Param[string](c, "id"))
			return c.NoContent(http.StatusOK)
		})
	})

	t.Run("unparseable param yields zero", func(t *testing.T) {
		t.Parallel()

		serve(t, "/routes/{id}", "/routes/el-cap", func(c Context) error {
			require.Zero(t, Param[int](c, "id"))
			return c.NoContent(http.StatusOK)
		})
	})

	t.Run("typed query with default", func(t *testing.T) {
		t.Parallel()

		serve(t, "/sectors", "/sectors?page=3&sunny=true&grade=junk", func(c Context) error {
			require.Equal(t, 3, Query[int](c, "page"))
			require.True(t, Query[bool](c, "sunny"))
			require.Equal(t, 25, QueryDefault(c, "limit", 25))   // absent
			require.Equal(t, 6.0, QueryDefault(c, "grade", 6.0)) // unparseable
			return c.NoContent(http.StatusOK)
		})
	})

	t.Run("context value round trip", func(t *testing.T) {
		t.Parallel()

		type regionKey struct{}
		serve(t, "/x", "/x", func(c Context) error {
			c.Set(regionKey{}, "chamonix")
			require.Equal(t, "chamonix", ContextValue[string](c, regionKey{}))
			require.Zero(t, ContextValue[int](c, regionKey{})) // wrong type
			return c.NoContent(http.StatusOK)
		})
	})
}
