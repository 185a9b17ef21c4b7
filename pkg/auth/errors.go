package auth

import "errors"

// ErrUserNotFound is returned by a UserSource when no record matches.
var ErrUserNotFound = errors.New("auth: user not found")
