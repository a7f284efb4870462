package wikify

import (
	"errors"
	"fmt"
)

// Common errors returned by the wikification client.
var (
	// ErrMissingToken indicates no API token was configured for the service.
	ErrMissingToken = errors.New("wikification token not configured")

	// ErrUnknownService indicates an unsupported annotation service name.
	ErrUnknownService = errors.New("unknown wikification service")

	// ErrAuthError indicates an authentication error (missing/invalid token).
	ErrAuthError = errors.New("wikification authentication error")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("wikification rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with wikification service")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from wikification service")
)

// APIError represents an error status from an annotation API.
type APIError struct {
	StatusCode int
	Service    Service
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) || errors.Is(err, ErrMissingToken) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
