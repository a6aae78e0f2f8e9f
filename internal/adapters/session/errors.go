package session

import (
	"errors"
)

// Sentinel kinds for session errors. Both also match model.ErrAuth.
var (
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")
)
