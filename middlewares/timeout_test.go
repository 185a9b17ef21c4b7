package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/craghq/topo/internal"
	"github.com/craghq/topo/middlewares"
)

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("slow handler resolves as 504", func(t *testing.T) {
		t.Parallel()

		app := newApp("/slow", func(c internal.Context) error {
			<-middlewares.TimeoutContext(c).Done()
			return nil
		}, middlewares.Timeout(20*time.Millisecond))

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/slow", nil))
		require.Equal(t, http.StatusGatewayTimeout, w.Code)
	})

	t.Run("late writes after expiry are dropped", func(t *testing.T) {
		t.Parallel()

		// The abandoned handler keeps writing after the 504 went out;
		// none of it may reach the transport.
		handlerDone := make(chan struct{})
		app := newApp("/slow", func(c internal.Context) error {
			defer close(handlerDone)
			<-middlewares.TimeoutContext(c).Done()
			c.SetHeader("X-Late", "yes")
			return c.String(http.StatusOK, "late output")
		}, middlewares.Timeout(20*time.Millisecond))

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/slow", nil))
		<-handlerDone

		require.Equal(t, http.StatusGatewayTimeout, w.Code)
		require.Equal(t, "gateway timeout", w.Body.String())
		require.Empty(t, w.Header().Get("X-Late"))
	})

	t.Run("fast handler unaffected", func(t *testing.T) {
		t.Parallel()

		app := newApp("/fast", okHandler, middlewares.Timeout(time.Second))

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/fast", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "ok", w.Body.String())
	})
}
