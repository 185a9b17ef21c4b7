package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/craghq/topo/pkg/session"
)

func TestSessionManager(t *testing.T) {
	t.Parallel()

	t.Run("create then load round trip", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		sm := NewSessionManager(store)

		sess, err := sm.CreateSession(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, sess.ID)
		require.NotEmpty(t, sess.Token)

		w := httptest.NewRecorder()
		sm.SaveSession(w, sess)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range w.Result().Cookies() {
			r.AddCookie(c)
		}

		loaded, err := sm.LoadSession(context.Background(), httptest.NewRecorder(), r)
		require.NoError(t, err)
		require.Equal(t, sess.ID, loaded.ID)
	})

	t.Run("no cookie loads nil session", func(t *testing.T) {
		t.Parallel()

		sm := NewSessionManager(session.NewMemoryStore())
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		sess, err := sm.LoadSession(context.Background(), httptest.NewRecorder(), r)
		require.NoError(t, err)
		require.Nil(t, sess)
	})

	t.Run("stale cookie loads nil and is cleared", func(t *testing.T) {
		t.Parallel()

		// A browser holding a cookie for a wiped or expired record must
		// not break the request: it becomes anonymous.
		sm := NewSessionManager(session.NewMemoryStore())
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: defaultSessionCookieName, Value: "forged"})

		w := httptest.NewRecorder()
		sess, err := sm.LoadSession(context.Background(), w, r)
		require.NoError(t, err)
		require.Nil(t, sess)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("rotate invalidates the old token", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		sm := NewSessionManager(store)

		sess, err := sm.CreateSession(context.Background())
		require.NoError(t, err)
		oldToken := sess.Token

		require.NoError(t, sm.RotateToken(context.Background(), sess))
		require.NotEqual(t, oldToken, sess.Token)

		_, err = store.Get(context.Background(), oldToken)
		require.ErrorIs(t, err, session.ErrNotFound)

		fresh, err := store.Get(context.Background(), sess.Token)
		require.NoError(t, err)
		require.Equal(t, sess.ID, fresh.ID)
	})

	t.Run("delete session expires the cookie", func(t *testing.T) {
		t.Parallel()

		sm := NewSessionManager(session.NewMemoryStore(), WithSessionCookieName("sid"))
		w := httptest.NewRecorder()
		sm.DeleteSession(w)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, "sid", cookies[0].Name)
		require.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("cookie options applied", func(t *testing.T) {
		t.Parallel()

		sm := NewSessionManager(session.NewMemoryStore(),
			WithSessionCookieName("topo_sid"),
			WithSessionMaxAge(3600),
			WithSessionSecure(true),
			WithSessionSameSite(http.SameSiteStrictMode),
		)

		sess, err := sm.CreateSession(context.Background())
		require.NoError(t, err)

		w := httptest.NewRecorder()
		sm.SaveSession(w, sess)

		c := w.Result().Cookies()[0]
		require.Equal(t, "topo_sid", c.Name)
		require.Equal(t, 3600, c.MaxAge)
		require.True(t, c.Secure)
		require.Equal(t, http.SameSiteStrictMode, c.SameSite)
	})
}
