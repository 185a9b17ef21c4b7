// Package cookie provides plain and HMAC-signed cookie management.
//
// Signed cookies carry the session token: the value is stored alongside an
// HMAC-SHA256 signature so a client-side modification is detected before the
// value reaches any backend lookup.
//
//	mgr := cookie.New(
//	    cookie.WithSecret(os.Getenv("COOKIE_SECRET")), // 32+ bytes
//	    cookie.WithSecure(true),
//	)
//
//	mgr.SetSigned(w, "session_token", token, 86400)
//	token, err := mgr.GetSigned(r, "session_token")
//
// Defaults are HttpOnly, SameSite=Lax, and path "/". Verification failures
// return [ErrBadSig]; a missing cookie returns [ErrNotFound].
package cookie
