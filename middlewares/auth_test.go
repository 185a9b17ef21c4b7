package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/craghq/topo/internal"
	"github.com/craghq/topo/middlewares"
	"github.com/craghq/topo/pkg/auth"
	"github.com/craghq/topo/pkg/session"
)

// userDirectory is an in-memory auth.UserSource whose rows can be removed
// mid-test to simulate a user deleted while their session is still live.
type userDirectory struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newUserDirectory(users ...*auth.User) *userDirectory {
	d := &userDirectory{users: make(map[string]*auth.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *userDirectory) FindByID(_ context.Context, id string) (*auth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, auth.ErrUserNotFound
}

func (d *userDirectory) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (d *userDirectory) add(u *auth.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *userDirectory) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, id)
}

// signIn is a test middleware that authenticates the session before the
// middleware under test runs, writing the same keys a real login does.
func signIn(userID string, role auth.Role) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if err := c.AuthenticateSession(userID); err != nil {
				return err
			}
			if err := c.SetSessionValue(auth.KeyUserID, userID); err != nil {
				return err
			}
			if err := c.SetSessionValue(auth.KeyAuthenticated, true); err != nil {
				return err
			}
			if role != "" {
				if err := c.SetSessionValue(auth.KeyRole, string(role)); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

func chain(mws ...internal.Middleware) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

func okHandler(c internal.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	t.Run("anonymous redirected with bounce-back", func(t *testing.T) {
		t.Parallel()

		svc := auth.NewService(newUserDirectory())
		app := newApp("/admin/sectors", okHandler,
			middlewares.RequireAuth(svc, "/login"),
			internal.WithSession(session.NewMemoryStore()),
		)

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/admin/sectors?page=2", nil))
		require.Equal(t, http.StatusFound, w.Code)
		require.Equal(t, "/login?next=%2Fadmin%2Fsectors%3Fpage%3D2", w.Header().Get("Location"))
	})

	t.Run("authenticated passes through", func(t *testing.T) {
		t.Parallel()

		svc := auth.NewService(newUserDirectory(&auth.User{ID: "u1"}))
		app := newApp("/admin/sectors", okHandler,
			chain(signIn("u1", ""), middlewares.RequireAuth(svc, "/login")),
			internal.WithSession(session.NewMemoryStore()),
		)

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/admin/sectors", nil))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("deleted user demoted to anonymous", func(t *testing.T) {
		t.Parallel()

		// The session still claims the user; the gate must re-check the
		// live source, refuse entry, and scrub the stale flags so the
		// demotion sticks even if the user row comes back.
		dir := newUserDirectory(&auth.User{ID: "u7", Role: "editor"})
		svc := auth.NewService(dir)
		app := internal.New(
			internal.WithSession(session.NewMemoryStore()),
			internal.WithHandlers(routes(func(r internal.Router) {
				r.GET("/seed", okHandler, signIn("u7", "editor"))
				r.GET("/admin/panel", okHandler, middlewares.RequireAuth(svc, "/login"))
			})),
		)

		seed := doRequest(app, httptest.NewRequest(http.MethodGet, "/seed", nil))
		require.Equal(t, http.StatusOK, seed.Code)
		cookies := seed.Result().Cookies()
		require.NotEmpty(t, cookies)

		get := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/admin/panel", nil)
			for _, c := range cookies {
				req.AddCookie(c)
			}
			return doRequest(app, req)
		}

		// Sanity: the session is good while the user exists.
		require.Equal(t, http.StatusOK, get().Code)

		dir.remove("u7")
		w := get()
		require.Equal(t, http.StatusFound, w.Code)
		require.Equal(t, "/login?next=%2Fadmin%2Fpanel", w.Header().Get("Location"))

		// The scrub persisted: restoring the row does not resurrect the
		// session's claim.
		dir.add(&auth.User{ID: "u7", Role: "editor"})
		require.Equal(t, http.StatusFound, get().Code)
	})
}

func TestRequireGuest(t *testing.T) {
	t.Parallel()

	t.Run("authenticated bounced home", func(t *testing.T) {
		t.Parallel()

		svc := auth.NewService(newUserDirectory(&auth.User{ID: "u1"}))
		app := newApp("/login", okHandler,
			chain(signIn("u1", ""), middlewares.RequireGuest(svc, "/")),
			internal.WithSession(session.NewMemoryStore()),
		)

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/login", nil))
		require.Equal(t, http.StatusFound, w.Code)
		require.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("anonymous sees the page", func(t *testing.T) {
		t.Parallel()

		svc := auth.NewService(newUserDirectory())
		app := newApp("/login", okHandler,
			middlewares.RequireGuest(svc, "/"),
			internal.WithSession(session.NewMemoryStore()),
		)

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/login", nil))
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	t.Run("matching role admitted", func(t *testing.T) {
		t.Parallel()

		svc := auth.NewService(newUserDirectory(&auth.User{ID: "u1", Role: "editor"}))
		app := newApp("/admin", okHandler,
			chain(signIn("u1", "editor"), middlewares.RequireRole(svc, "editor", "admin")),
			internal.WithSession(session.NewMemoryStore()),
		)

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/admin", nil))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("role mismatch forbidden", func(t *testing.T) {
		t.Parallel()

		svc := auth.NewService(newUserDirectory(&auth.User{ID: "u1", Role: "viewer"}))
		app := newApp("/admin", okHandler,
			chain(signIn("u1", "viewer"), middlewares.RequireRole(svc, "admin")),
			internal.WithSession(session.NewMemoryStore()),
		)

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/admin", nil))
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("anonymous forbidden", func(t *testing.T) {
		t.Parallel()

		svc := auth.NewService(newUserDirectory())
		app := newApp("/admin", okHandler,
			middlewares.RequireRole(svc, "admin"),
			internal.WithSession(session.NewMemoryStore()),
		)

		w := doRequest(app, httptest.NewRequest(http.MethodGet, "/admin", nil))
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("deleted user loses the role", func(t *testing.T) {
		t.Parallel()

		dir := newUserDirectory(&auth.User{ID: "u1", Role: "admin"})
		svc := auth.NewService(dir)
		app := internal.New(
			internal.WithSession(session.NewMemoryStore()),
			internal.WithHandlers(routes(func(r internal.Router) {
				r.GET("/seed", okHandler, signIn("u1", "admin"))
				r.GET("/admin", okHandler, middlewares.RequireRole(svc, "admin"))
			})),
		)

		seed := doRequest(app, httptest.NewRequest(http.MethodGet, "/seed", nil))
		cookies := seed.Result().Cookies()

		dir.remove("u1")
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		require.Equal(t, http.StatusForbidden, doRequest(app, req).Code)
	})
}
