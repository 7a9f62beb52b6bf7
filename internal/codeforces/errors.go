package codeforces

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the Codeforces client.
var (
	// ErrAPI indicates the API answered with a non-OK status.
	ErrAPI = errors.New("codeforces API error")

	// ErrRateLimited indicates retries were exhausted on HTTP 429.
	ErrRateLimited = errors.New("codeforces rate limit exceeded")

	// ErrNetwork indicates a transport failure or a persistent server error.
	ErrNetwork = errors.New("network error communicating with codeforces")
)

// APIError is a failed API call.
type APIError struct {
	StatusCode int
	Method     string
	Comment    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("codeforces %s failed (status %d): %s", e.Method, e.StatusCode, e.Comment)
}

// Unwrap lets errors.Is match ErrAPI.
func (e *APIError) Unwrap() error {
	return ErrAPI
}

// IsRateLimited reports whether err came from rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
