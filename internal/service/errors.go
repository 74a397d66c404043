package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are
	// incorrect. It deliberately covers both unknown email and wrong password
	// so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the acting user does not own the record.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports a rejected write with the offending field. The HTTP
// surface renders it back into the form.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func validationErr(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
