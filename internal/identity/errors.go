package identity

import "errors"

// Sentinel errors surfaced by the identity service. Handlers map these to
// field-adjacent messages; anything else is treated as a provider outage.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrUserNotFound       = errors.New("no account found with this email")
	ErrFederatedCancelled = errors.New("federated sign-in was cancelled or blocked")
	ErrNoSession          = errors.New("no active session")
	ErrSessionNotFound    = errors.New("session not found")
)
