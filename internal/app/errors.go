package app

import "errors"

var (
	// ErrAnonymous is returned for intents that need a named owner.
	ErrAnonymous = errors.New("owner required")
	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid input")
)
