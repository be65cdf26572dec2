package service

import "errors"

// Common service errors. Callers check them with errors.Is and the API layer
// maps them to HTTP status codes.
var (
	// ErrSuperuserExists is returned when createsuperuser targets a taken username.
	ErrSuperuserExists = errors.New("a user with that username already exists")
)
