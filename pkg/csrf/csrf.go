// Package csrf issues and validates per-session anti-forgery tokens.
//
// Tokens are bound to the server-side session and compared in constant
// time. A manager is constructed with exactly one validity policy:
// session-lifetime tokens (the default) or per-request tokens that
// rotate after each successful state-mutating request. Mixing policies
// within one deployment is the classic source of spurious token-mismatch
// failures, so the policy is fixed at construction.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/craghq/topo/pkg/session"
)

// SessionKey is the session value key holding the current token.
const SessionKey = "_csrf_token"

// ErrNoSession is returned when a token operation runs without a session.
var ErrNoSession = errors.New("csrf: no session")

// Policy determines token validity.
type Policy int

const (
	// PolicySession keeps one token for the life of the session.
	PolicySession Policy = iota
	// PolicyPerRequest rotates the token after each successful
	// state-mutating request.
	PolicyPerRequest
)

// Manager issues and validates session-bound CSRF tokens.
type Manager struct {
	policy Policy
}

// Option configures the Manager.
type Option func(*Manager)

// WithPolicy sets the token validity policy.
// Defaults to PolicySession.
func WithPolicy(p Policy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// New creates a Manager.
func New(opts ...Option) *Manager {
	m := &Manager{policy: PolicySession}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the configured validity policy.
func (m *Manager) Policy() Policy {
	return m.policy
}

// Issue returns the session's token, creating one if absent.
func (m *Manager) Issue(sess *session.Session) (string, error) {
	if sess == nil {
		return "", ErrNoSession
	}
	if token := session.ValueOr(sess, SessionKey, ""); token != "" {
		return token, nil
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	sess.SetValue(SessionKey, token)
	return token, nil
}

// Validate compares a submitted token against the session-bound token
// in constant time. It never mutates state on failure.
func (m *Manager) Validate(sess *session.Session, submitted string) bool {
	if sess == nil || submitted == "" {
		return false
	}
	stored := session.ValueOr(sess, SessionKey, "")
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// Rotate replaces the session token. Under PolicySession it is a no-op;
// callers invoke it after a successful mutating request and the policy
// decides whether anything happens.
func (m *Manager) Rotate(sess *session.Session) error {
	if m.policy != PolicyPerRequest {
		return nil
	}
	if sess == nil {
		return ErrNoSession
	}
	token, err := generateToken()
	if err != nil {
		return err
	}
	sess.SetValue(SessionKey, token)
	return nil
}

// generateToken creates a cryptographically secure random token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf: read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
