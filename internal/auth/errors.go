package auth

import "errors"

var (
	// ErrTokenNotFound is returned by a TokenStore for a missing or expired key.
	ErrTokenNotFound = errors.New("auth: token not found")
	// ErrUnauthenticated means the session token is missing, unknown or expired.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrCSRFMissing means no CSRF token was sent.
	ErrCSRFMissing = errors.New("auth: csrf token missing")
	// ErrCSRFInvalid means the CSRF token does not match or has expired.
	ErrCSRFInvalid = errors.New("auth: invalid csrf token")
)
