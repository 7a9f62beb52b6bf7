package embedding

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors returned by embedding providers.
var (
	// ErrUnavailable indicates the backend could not serve the request
	// (network failure, authentication, quota, or not running).
	ErrUnavailable = errors.New("embedding backend unavailable")

	// ErrModelNotFound indicates the configured model is not installed locally.
	ErrModelNotFound = errors.New("embedding model not found")

	// ErrDimensionMismatch indicates the backend returned vectors of the wrong size.
	ErrDimensionMismatch = errors.New("unexpected embedding dimensions")
)

// APIError represents a non-success response from an embedding backend.
type APIError struct {
	Backend    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Backend, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, ErrUnavailable) match every API error.
func (e *APIError) Unwrap() error {
	return ErrUnavailable
}

// IsAuthError returns true if the error indicates a rejected credential.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsQuotaError returns true if the error indicates rate limiting or quota exhaustion.
func IsQuotaError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == http.StatusPaymentRequired
	}
	return false
}
