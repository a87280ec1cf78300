package identity

import "errors"

var (
	// ErrInvalidCredentials is returned when email and password do not match.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("identity: email already registered")
	// ErrInvalidEmail is returned for malformed email addresses.
	ErrInvalidEmail = errors.New("identity: invalid email")
	// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("identity: weak password")
	// ErrInvalidToken is returned for tokens that fail signature or format checks.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrSessionExpired is returned for tokens past their expiry.
	ErrSessionExpired = errors.New("identity: session expired")
	// ErrSessionRevoked is returned for tokens whose session was signed out.
	ErrSessionRevoked = errors.New("identity: session revoked")
)
