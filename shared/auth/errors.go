package auth

import "errors"

// Stable error kinds surfaced by the auth core. Handlers map these to HTTP
// statuses; nothing below this package should leak store internals upward.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrTenantInactive     = errors.New("client account is inactive")
	ErrTokenInactive      = errors.New("token is inactive")
	ErrTokenExpired       = errors.New("token has expired")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrUnauthenticated    = errors.New("invalid or missing credential")
	ErrCredentialExpired  = errors.New("credential has expired")
	ErrNotFound           = errors.New("not found")
	ErrLimitExceeded      = errors.New("token limit reached")
)
