package errors

import (
	"errors"
	"fmt"
)

// Common error types for the OAuth2 strategy
var (
	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// Callback errors
	ErrMissingCode     = errors.New("missing authorization code")
	ErrStateMismatch   = errors.New("state mismatch")
	ErrNoRefreshToken  = errors.New("token expired and no refresh token is available")
	ErrMissingFlowKey  = errors.New("missing flow session key")
	ErrUnexpectedFault = errors.New("unexpected fault during callback processing")

	// Session errors
	ErrSessionExists   = errors.New("session entry already exists")
	ErrSessionNotFound = errors.New("session not found")
)

// New returns an error that formats as the given text
func New(text string) error {
	return errors.New(text)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
