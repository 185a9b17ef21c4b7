package health

import "errors"

// ErrCheckTimeout replaces a check's own error when the probe deadline
// expires, so a hung dependency reads as a timeout rather than a raw
// context error in the readiness response.
var ErrCheckTimeout = errors.New("health: check timeout")
