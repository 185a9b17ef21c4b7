package middlewares

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/craghq/topo/internal"
	"github.com/craghq/topo/pkg/auth"
)

// RequireAuth returns middleware that admits only authenticated requests.
// The session is never trusted on its own: the identity is re-checked
// against the live user source on every request, so a session whose user
// row has been deleted is demoted to anonymous (and its stale flags
// scrubbed) before the gate decides. Anonymous requests are redirected to
// loginPath with the originally requested path in the "next" query
// parameter, so the login handler can bounce the user back after a
// successful sign-in.
func RequireAuth(svc *auth.Service, loginPath string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			sess, err := c.Session()
			if err != nil {
				return err
			}

			ok, err := svc.Check(c.Context(), sess)
			if err != nil {
				return err
			}
			if ok {
				return next(c)
			}

			target := loginPath + "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
			return internal.ErrUnauthenticated(target)
		}
	}
}

// RequireGuest returns middleware for guest-only pages such as the login
// form. Authenticated users are redirected to homePath; the check runs
// against the live user source, same as RequireAuth.
func RequireGuest(svc *auth.Service, homePath string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			sess, err := c.Session()
			if err != nil {
				return err
			}

			ok, err := svc.Check(c.Context(), sess)
			if err != nil {
				return err
			}
			if !ok {
				return next(c)
			}
			return c.Redirect(http.StatusFound, homePath)
		}
	}
}

// RequireRole returns middleware that admits only sessions whose role is in
// the allowed set. The role comes from the auth service, which verifies the
// user row still exists; anonymous sessions and role mismatches are
// rejected with 403. Pair with RequireAuth when a login redirect is wanted
// instead.
func RequireRole(svc *auth.Service, roles ...auth.Role) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			sess, err := c.Session()
			if err != nil {
				return err
			}

			role, err := svc.Role(c.Context(), sess)
			if err != nil {
				return err
			}
			if role == auth.RoleAnonymous || !slices.Contains(roles, role) {
				return internal.ErrForbidden("insufficient permissions")
			}

			return next(c)
		}
	}
}
