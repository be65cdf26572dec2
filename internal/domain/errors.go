package domain

import "errors"

// ErrValidation wraps field failures when an account is created.
var ErrValidation = errors.New("validation failed")
