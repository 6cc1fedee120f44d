package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these map to specific HTTP responses
var (
	// Session errors. An absent session is a normal empty result, not a
	// failure; handlers decide whether it means "sign in" or "no content".
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Rate limiting
	ErrRateLimited = errors.New("rate limit exceeded")

	// Federation errors
	ErrInvalidAssertion       = errors.New("invalid assertion")
	ErrAssertionExpired       = errors.New("assertion expired")
	ErrAuthenticationMismatch = errors.New("authentication mismatch")
	ErrMissingToken           = errors.New("missing token")

	// Provider errors
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserNotFound        = errors.New("user not found")
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// Token-exchange errors (RFC 6749 compliant)
	ErrInvalidClient        = errors.New("invalid_client")
	ErrInvalidGrant         = errors.New("invalid_grant")
	ErrUnsupportedGrantType = errors.New("unsupported_grant_type")
	ErrInvalidToken         = errors.New("token invalid")

	// Configuration errors - fatal at startup, never per-request
	ErrMissingSigningSecret = errors.New("signing secret not configured")
	ErrUnknownRateClass     = errors.New("unknown rate limit class")

	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation error")
)

// FederationError carries an OAuth-style error code for the token exchange
// and user-info endpoints consumed by the community platform.
type FederationError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *FederationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// NewFederationError creates a new federation error.
func NewFederationError(code, description string) *FederationError {
	return &FederationError{
		Code:        code,
		Description: description,
	}
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
