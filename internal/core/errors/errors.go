package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations
var (
	// Dashboards
	ErrDashboardNotFound = errors.New("dashboard not found")
	ErrRefreshInFlight   = errors.New("refresh already in progress")

	// Jira proxy validation
	ErrJQLRequired        = errors.New("jql is required")
	ErrMaxResultsTooLarge = errors.New("maxResults exceeds the allowed limit")

	// Jira configuration
	ErrJiraNotConfigured = errors.New("jira base url, email and api token must be configured")

	// Generic
	ErrNotFound    = errors.New("resource not found")
	ErrInternal    = errors.New("internal server error")
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrUpstream    = errors.New("upstream jira request failed")
)

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewRateLimitError() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    "Too many requests. Please try again later.",
		Code:       "RATE_LIMITED",
		StatusCode: 429,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}

// NewUpstreamError reports a failed call to the Jira REST API. The upstream
// status code is preserved in Details; the response code is always 502.
func NewUpstreamError(err error, upstreamStatus int) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %v", ErrUpstream, err),
		Message:    "Jira did not accept the request",
		Code:       "UPSTREAM_ERROR",
		StatusCode: 502,
		Details:    map[string]interface{}{"upstreamStatus": upstreamStatus},
	}
}

// NewServiceUnavailableError reports a dashboard that has no data yet and
// whose source queries are currently failing.
func NewServiceUnavailableError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "SERVICE_UNAVAILABLE",
		StatusCode: 503,
	}
}
