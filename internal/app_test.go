package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/craghq/topo/pkg/container"
	"github.com/craghq/topo/pkg/session"
)

type routesFunc func(r Router)

func (f routesFunc) Routes(r Router) { f(r) }

func doRequest(app *App, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	t.Run("handler response committed", func(t *testing.T) {
		t.Parallel()

		app := New(WithHandlers(routesFunc(func(r Router) {
			r.GET("/regions/{id}", func(c Context) error {
				return c.String(http.StatusOK, "region "+c.Param("id"))
			})
		})))

		w := doRequest(app, http.MethodGet, "/regions/7")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "region 7", w.Body.String())
	})

	t.Run("route miss yields 404", func(t *testing.T) {
		t.Parallel()

		app := New()
		w := doRequest(app, http.MethodGet, "/nowhere")
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("method mismatch yields 405 with Allow", func(t *testing.T) {
		t.Parallel()

		app := New(WithHandlers(routesFunc(func(r Router) {
			r.GET("/sectors", nopHandler)
		})))

		w := doRequest(app, http.MethodPost, "/sectors")
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
		require.Equal(t, "GET", w.Header().Get("Allow"))
	})

	t.Run("custom not found handler", func(t *testing.T) {
		t.Parallel()

		app := New(WithNotFoundHandler(func(c Context) error {
			return c.String(http.StatusNotFound, "lost?")
		}))

		w := doRequest(app, http.MethodGet, "/nowhere")
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "lost?", w.Body.String())
	})

	t.Run("partial output discarded on handler failure", func(t *testing.T) {
		t.Parallel()

		app := New(WithHandlers(routesFunc(func(r Router) {
			r.GET("/broken", func(c Context) error {
				if err := c.String(http.StatusOK, "<html><body>partial"); err != nil {
					return err
				}
				return errors.New("render exploded mid-page")
			})
		})))

		w := doRequest(app, http.MethodGet, "/broken")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotContains(t, w.Body.String(), "partial")
		require.NotContains(t, w.Body.String(), "exploded") // internals never leak
	})

	t.Run("middleware short-circuit skips handler", func(t *testing.T) {
		t.Parallel()

		handlerRan := false
		gate := func(next HandlerFunc) HandlerFunc {
			return func(c Context) error {
				return c.Redirect(http.StatusFound, "/login")
			}
		}

		app := New(WithHandlers(routesFunc(func(r Router) {
			r.GET("/private", func(c Context) error {
				handlerRan = true
				return nil
			}, gate)
		})))

		w := doRequest(app, http.MethodGet, "/private")
		require.Equal(t, http.StatusFound, w.Code)
		require.Equal(t, "/login", w.Header().Get("Location"))
		require.False(t, handlerRan)
	})

	t.Run("global middleware runs before route middleware", func(t *testing.T) {
		t.Parallel()

		var order []string
		mark := func(name string) Middleware {
			return func(next HandlerFunc) HandlerFunc {
				return func(c Context) error {
					order = append(order, name)
					return next(c)
				}
			}
		}

		app := New(
			WithMiddleware(mark("global1"), mark("global2")),
			WithHandlers(routesFunc(func(r Router) {
				r.GET("/x", func(c Context) error {
					order = append(order, "handler")
					return c.NoContent(http.StatusNoContent)
				}, mark("route"))
			})),
		)

		doRequest(app, http.MethodGet, "/x")
		require.Equal(t, []string{"global1", "global2", "route", "handler"}, order)
	})

	t.Run("middleware error routes through boundary", func(t *testing.T) {
		t.Parallel()

		deny := func(next HandlerFunc) HandlerFunc {
			return func(c Context) error {
				return ErrForbidden("editors only")
			}
		}

		app := New(WithHandlers(routesFunc(func(r Router) {
			r.GET("/admin", nopHandler, deny)
		})))

		w := doRequest(app, http.MethodGet, "/admin")
		require.Equal(t, http.StatusForbidden, w.Code)
		require.Equal(t, "editors only", w.Body.String())
	})

	t.Run("redirect error preserves target", func(t *testing.T) {
		t.Parallel()

		app := New(WithHandlers(routesFunc(func(r Router) {
			r.GET("/protected", func(c Context) error {
				return ErrUnauthenticated("/login?next=%2Fprotected")
			})
		})))

		w := doRequest(app, http.MethodGet, "/protected")
		require.Equal(t, http.StatusFound, w.Code)
		require.Equal(t, "/login?next=%2Fprotected", w.Header().Get("Location"))
	})

	t.Run("custom error handler renders the response", func(t *testing.T) {
		t.Parallel()

		app := New(
			WithErrorHandler(func(c Context, err error) error {
				return c.JSON(AsHTTPError(err).StatusCode(), map[string]string{"error": err.Error()})
			}),
			WithHandlers(routesFunc(func(r Router) {
				r.GET("/fail", func(c Context) error {
					return ErrConflict("duplicate sector")
				})
			})),
		)

		w := doRequest(app, http.MethodGet, "/fail")
		require.Equal(t, http.StatusConflict, w.Code)
		require.JSONEq(t, `{"error":"duplicate sector"}`, w.Body.String())
	})

	t.Run("failing custom error handler falls back to default", func(t *testing.T) {
		t.Parallel()

		app := New(
			WithErrorHandler(func(c Context, err error) error {
				return errors.New("error page template missing")
			}),
			WithHandlers(routesFunc(func(r Router) {
				r.GET("/fail", func(c Context) error {
					return errors.New("boom")
				})
			})),
		)

		w := doRequest(app, http.MethodGet, "/fail")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, "internal server error", w.Body.String())
	})

	t.Run("exactly one response per request", func(t *testing.T) {
		t.Parallel()

		// A handler that writes a body AND returns an error must not
		// produce a mixed response: the error boundary wins, once.
		app := New(WithHandlers(routesFunc(func(r Router) {
			r.GET("/double", func(c Context) error {
				_ = c.String(http.StatusOK, "first")
				return ErrNotFound("gone")
			})
		})))

		w := doRequest(app, http.MethodGet, "/double")
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "gone", w.Body.String())
	})

	t.Run("error headers survive the discard", func(t *testing.T) {
		t.Parallel()

		// Discard wipes handler-set headers along with the partial body;
		// headers carried on the error are re-applied by the boundary.
		app := New(WithHandlers(routesFunc(func(r Router) {
			r.GET("/throttled", func(c Context) error {
				c.SetHeader("X-Partial", "yes")
				_ = c.String(http.StatusOK, "partial")
				return NewHTTPError(http.StatusTooManyRequests, "too many requests",
					WithHeader("Retry-After", "1"))
			})
		})))

		w := doRequest(app, http.MethodGet, "/throttled")
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		require.Equal(t, "1", w.Header().Get("Retry-After"))
		require.Empty(t, w.Header().Get("X-Partial"))
		require.NotContains(t, w.Body.String(), "partial")
	})
}

func TestDispatch_SessionFlush(t *testing.T) {
	t.Parallel()

	t.Run("dirty session persisted before response commit", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		app := New(
			WithSession(store),
			WithHandlers(routesFunc(func(r Router) {
				r.GET("/visit", func(c Context) error {
					if err := c.InitSession(); err != nil {
						return err
					}
					if err := c.SetSessionValue("last_page", "/visit"); err != nil {
						return err
					}
					return c.String(http.StatusOK, "ok")
				})
			})),
		)

		w := doRequest(app, http.MethodGet, "/visit")
		require.Equal(t, http.StatusOK, w.Code)

		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)

		sess, err := store.Get(context.Background(), cookies[0].Value)
		require.NoError(t, err)
		v, ok := sess.GetValue("last_page")
		require.True(t, ok)
		require.Equal(t, "/visit", v)
	})

	t.Run("stale session cookie serves the page anonymously", func(t *testing.T) {
		t.Parallel()

		// A cookie pointing at a wiped store record must not 500 the
		// page; the request runs anonymously with a fresh session.
		app := New(
			WithSession(session.NewMemoryStore()),
			WithCSRF(),
			WithHandlers(routesFunc(func(r Router) {
				r.GET("/regions", func(c Context) error {
					if _, err := c.CSRFToken(); err != nil {
						return err
					}
					return c.String(http.StatusOK, "regions")
				})
			})),
		)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/regions", nil)
		r.AddCookie(&http.Cookie{Name: defaultSessionCookieName, Value: "gone-from-store"})
		app.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "regions", w.Body.String())
	})
}

func TestNew_ContainerValidation(t *testing.T) {
	t.Parallel()

	t.Run("unresolvable graph fails at startup", func(t *testing.T) {
		t.Parallel()

		c := container.New()
		require.NoError(t, container.RegisterFunc(c, func(r Renderer) *routeTable {
			return nil
		}))

		require.Panics(t, func() {
			New(WithContainer(c))
		})
	})

	t.Run("healthy graph passes", func(t *testing.T) {
		t.Parallel()

		c := container.New()
		container.RegisterValue[Renderer](c, Renderer(nil))

		require.NotPanics(t, func() {
			New(WithContainer(c))
		})
	})
}
