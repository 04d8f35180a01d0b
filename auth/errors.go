package auth

import "errors"

// Sentinel errors for credential handling.
var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrTokenFetch         = errors.New("auth: token fetch failed")
	ErrTokenMalformed     = errors.New("auth: token malformed")
)
