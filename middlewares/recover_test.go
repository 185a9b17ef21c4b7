package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/craghq/topo/internal"
	"github.com/craghq/topo/middlewares"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("panic becomes 500 without leaking the value", func(t *testing.T) {
		t.Parallel()

		app := newApp("/boom", func(c internal.Context) error {
			panic("secret database dsn")
		}, middlewares.Recover())

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/boom", nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotContains(t, w.Body.String(), "secret")
	})

	t.Run("partial output before panic is discarded", func(t *testing.T) {
		t.Parallel()

		app := newApp("/boom", func(c internal.Context) error {
			_ = c.String(http.StatusOK, "half a page")
			panic("template exploded")
		}, middlewares.Recover())

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/boom", nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotContains(t, w.Body.String(), "half a page")
	})

	t.Run("non-panicking handler unaffected", func(t *testing.T) {
		t.Parallel()

		app := newApp("/ok", func(c internal.Context) error {
			return c.String(http.StatusOK, "fine")
		}, middlewares.Recover())

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/ok", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "fine", w.Body.String())
	})
}
