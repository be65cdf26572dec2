package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrInvalidConfig wraps every configuration failure returned by Load.
	ErrInvalidConfig = errors.New("configuration validation failed")

	// ErrMissingVariable is returned for a required variable that is unset or empty.
	ErrMissingVariable = errors.New("required variable is not set")

	// ErrMalformedValue is returned when a variable cannot be parsed into its type.
	ErrMalformedValue = errors.New("malformed value")
)

// FieldError describes a single problem with one setting.
type FieldError struct {
	Variable string
	Err      error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Variable, e.Err)
}

// Unwrap returns the underlying error to support errors.Is/errors.As.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError aggregates every FieldError found during Load.
type ValidationError struct {
	errs *multierror.Error
}

func newValidationError() *ValidationError {
	return &ValidationError{errs: &multierror.Error{ErrorFormat: formatFieldErrors}}
}

func (e *ValidationError) add(variable string, err error) {
	e.errs = multierror.Append(e.errs, &FieldError{Variable: variable, Err: err})
}

func (e *ValidationError) empty() bool {
	return e.errs.ErrorOrNil() == nil
}

// Fields returns the individual failures in the order they were found.
func (e *ValidationError) Fields() []*FieldError {
	out := make([]*FieldError, 0, e.errs.Len())
	for _, err := range e.errs.Errors {
		var fe *FieldError
		if errors.As(err, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// Variables returns the names of all failing variables.
func (e *ValidationError) Variables() []string {
	fields := e.Fields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Variable)
	}
	return names
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidConfig, e.errs.Error())
}

// Unwrap exposes ErrInvalidConfig and each field error.
func (e *ValidationError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.errs.WrappedErrors()...)
}

func formatFieldErrors(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}
