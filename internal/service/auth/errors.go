package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid session token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("session token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("session token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("session token is missing")

	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInactiveUser is returned when a disabled account tries to sign in.
	ErrInactiveUser = errors.New("user account is disabled")

	// ErrPasswordRejected wraps every failed password validator.
	ErrPasswordRejected = errors.New("password rejected")

	// ErrUnknownValidator is returned for a password validator name that is not registered.
	ErrUnknownValidator = errors.New("unknown password validator")
)
