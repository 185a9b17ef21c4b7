package topo_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/craghq/topo"
	"github.com/craghq/topo/pkg/session"
)

type routes func(r topo.Router)

func (f routes) Routes(r topo.Router) { f(r) }

func TestFacade(t *testing.T) {
	t.Parallel()

	t.Run("handler routes served end to end", func(t *testing.T) {
		t.Parallel()

		app := topo.New(
			topo.WithHandlers(routes(func(r topo.Router) {
				r.GET("/sectors/{id}", func(c topo.Context) error {
					return c.String(http.StatusOK, "sector "+c.Param("id"))
				})
			})),
		)

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sectors/42", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "sector 42", w.Body.String())
	})

	t.Run("declarative routes resolved by name", func(t *testing.T) {
		t.Parallel()

		reg := topo.NewRouteRegistry().
			Action("home", func(c topo.Context) error {
				return c.String(http.StatusOK, "welcome")
			})

		app := topo.New(topo.WithRoutes([]byte("- {method: GET, path: /, action: home}"), reg))

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "welcome", w.Body.String())
	})

	t.Run("error constructors map to statuses", func(t *testing.T) {
		t.Parallel()

		app := topo.New(
			topo.WithHandlers(routes(func(r topo.Router) {
				r.GET("/gone", func(c topo.Context) error {
					return topo.ErrNotFound("no such crag")
				})
			})),
		)

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gone", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "no such crag", w.Body.String())
	})

	t.Run("session flows through the facade", func(t *testing.T) {
		t.Parallel()

		app := topo.New(
			topo.WithSession(session.NewMemoryStore()),
			topo.WithHandlers(routes(func(r topo.Router) {
				r.GET("/login", func(c topo.Context) error {
					if err := c.AuthenticateSession("u7"); err != nil {
						return err
					}
					return c.NoContent(http.StatusNoContent)
				})
				r.GET("/me", func(c topo.Context) error {
					return c.String(http.StatusOK, c.UserID())
				})
			})),
		)

		login := httptest.NewRecorder()
		app.ServeHTTP(login, httptest.NewRequest(http.MethodGet, "/login", nil))
		require.Equal(t, http.StatusNoContent, login.Code)
		cookies := login.Result().Cookies()
		require.NotEmpty(t, cookies)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		me := httptest.NewRecorder()
		app.ServeHTTP(me, req)
		require.Equal(t, "u7", me.Body.String())
	})

	t.Run("typed helpers convert params", func(t *testing.T) {
		t.Parallel()

		app := topo.New(
			topo.WithHandlers(routes(func(r topo.Router) {
				r.GET("/routes/{id}", func(c topo.Context) error {
					id := topo.Param[int64](c, "id")
					page := topo.QueryDefault(c, "page", 1)
					if id == 9000 && page == 3 {
						return c.NoContent(http.StatusNoContent)
					}
					return topo.ErrBadRequest("unexpected values")
				})
			})),
		)

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/routes/9000?page=3", nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	})
}
