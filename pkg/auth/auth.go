// Package auth tracks the authenticated identity in a server-side
// session and cross-checks it against a live user source.
//
// The session is never trusted on its own: a session that claims
// authentication for a user that no longer exists is demoted to
// anonymous and its stale flags are scrubbed. Role policy (which roles
// may do what) lives in middleware; this package only answers who the
// current user is.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/craghq/topo/pkg/session"
)

// Session keys written by this package.
const (
	KeyUserID        = "auth_user_id"
	KeyAuthenticated = "is_authenticated"
	KeyRole          = "auth_role"
)

// Role is a named authorization role.
type Role string

// RoleAnonymous is the sentinel role for unauthenticated requests.
// Role() never returns an empty value, so role comparisons stay total.
const RoleAnonymous Role = "anonymous"

// User is the identity record the service verifies against.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
}

// UserSource looks up identity records. Implementations are expected to
// hit a live data store; the service never caches lookups across requests.
type UserSource interface {
	// FindByID returns the user with the given id, or ErrUserNotFound.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the user with the given email, or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// Service is the session-backed authentication service.
type Service struct {
	users UserSource
}

// NewService creates a Service backed by the given user source.
func NewService(users UserSource) *Service {
	return &Service{users: users}
}

// Check reports whether the session carries a consistent authenticated
// identity: the flags must be set AND the referenced user row must still
// exist. When the row is gone the stale flags are removed as a side
// effect, so a subsequent Check on the same session is anonymous without
// re-deriving anything.
func (s *Service) Check(ctx context.Context, sess *session.Session) (bool, error) {
	if sess == nil {
		return false, nil
	}

	flagged := session.ValueOr(sess, KeyAuthenticated, false)
	userID := session.ValueOr(sess, KeyUserID, "")
	if !flagged || userID == "" {
		return false, nil
	}

	_, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.scrub(sess)
			return false, nil
		}
		return false, fmt.Errorf("auth: check: %w", err)
	}
	return true, nil
}

// UserID returns the authenticated user id, or empty when anonymous.
// It applies the same consistency check as Check.
func (s *Service) UserID(ctx context.Context, sess *session.Session) (string, error) {
	ok, err := s.Check(ctx, sess)
	if err != nil || !ok {
		return "", err
	}
	return session.ValueOr(sess, KeyUserID, ""), nil
}

// Role returns the session's role, or RoleAnonymous when unauthenticated.
func (s *Service) Role(ctx context.Context, sess *session.Session) (Role, error) {
	ok, err := s.Check(ctx, sess)
	if err != nil || !ok {
		return RoleAnonymous, err
	}
	role := session.ValueOr(sess, KeyRole, "")
	if role == "" {
		return RoleAnonymous, nil
	}
	return Role(role), nil
}

// Attempt verifies the credentials and, on success, writes the
// authenticated-identity flags into the session. On failure the session
// is left untouched and false is returned; a lookup miss and a password
// mismatch are indistinguishable to the caller.
func (s *Service) Attempt(ctx context.Context, sess *session.Session, email, password string) (bool, error) {
	if sess == nil {
		return false, errors.New("auth: attempt without session")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("auth: attempt: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return false, nil
	}

	sess.UserID = &user.ID
	sess.SetValue(KeyUserID, user.ID)
	sess.SetValue(KeyAuthenticated, true)
	sess.SetValue(KeyRole, string(user.Role))
	return true, nil
}

// Logout clears all authentication-related session keys.
func (s *Service) Logout(sess *session.Session) {
	if sess == nil {
		return
	}
	s.scrub(sess)
}

func (s *Service) scrub(sess *session.Session) {
	sess.UserID = nil
	sess.MarkDirty()
	sess.DeleteValue(KeyUserID)
	sess.DeleteValue(KeyAuthenticated)
	sess.DeleteValue(KeyRole)
}
