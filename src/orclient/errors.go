package orclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Common error variables
var (
	// ErrNoAPIKey indicates the API key is missing
	ErrNoAPIKey = errors.New("API key is required")

	// ErrStreamClosed indicates the stream has been closed
	ErrStreamClosed = errors.New("stream closed")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("operation timed out")

	// ErrRateLimited indicates rate limiting
	ErrRateLimited = errors.New("rate limited")
)

// ErrorResponse represents a standard error response from the API
// This matches the OpenRouter error format: {"error":{"message":"...","code":"..."}}
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// APIError represents an error response from the OpenRouter API.
type APIError struct {
	StatusCode int                    `json:"-"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Code       any                    `json:"code"`
	Param      string                 `json:"param"`
	Details    map[string]interface{} `json:"metadata"`
	RequestID  string                 `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if code := e.code(); code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// code normalizes Code, which OpenRouter sends as a number and OpenAI-style
// upstreams send as a string.
func (e *APIError) code() string {
	switch c := e.Code.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return fmt.Sprintf("%d", int(c))
	default:
		return fmt.Sprint(c)
	}
}

// IsRetryable returns true if the error is retryable.
func (e *APIError) IsRetryable() bool {
	// 5xx errors are generally retryable
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}

	// Rate limit errors are retryable after a delay
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}

	// Specific error codes that are retryable
	switch e.code() {
	case "timeout", "connection_error", "server_error":
		return true
	}

	return false
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.code() == "rate_limit_exceeded"
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.code() == "invalid_api_key"
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// TimeoutError represents a timeout error with context.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
	Cause     error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s timed out after %v: %v", e.Operation, e.Duration, e.Cause)
	}
	return fmt.Sprintf("%s timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// Is implements error matching.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// ErrorHandler provides centralized error handling with logging.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger: logger.With("component", "error_handler"),
	}
}

// Handle logs and potentially transforms an error.
func (eh *ErrorHandler) Handle(err error, operation string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}

	// Build attributes
	logAttrs := []any{"operation", operation, "error", err.Error()}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, attr.Key, attr.Value)
	}

	var apiErr *APIError
	var validationErr *ValidationError
	var timeoutErr *TimeoutError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.IsRateLimit() {
			eh.logger.Warn("rate limited", logAttrs...)
		} else if apiErr.IsAuthError() {
			eh.logger.Error("authentication failed", logAttrs...)
		} else if apiErr.IsRetryable() {
			eh.logger.Warn("retryable API error", logAttrs...)
		} else {
			eh.logger.Error("API error", logAttrs...)
		}

	case errors.As(err, &validationErr):
		eh.logger.Warn("validation error", logAttrs...)

	case errors.As(err, &timeoutErr):
		eh.logger.Error("timeout error", logAttrs...)

	default:
		eh.logger.Error("error occurred", logAttrs...)
	}

	return err
}

// Wrap wraps an error with additional context.
func (eh *ErrorHandler) Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	if errors.Is(err, ErrTimeout) {
		return true
	}

	if errors.Is(err, ErrRateLimited) {
		return true
	}

	return false
}

// GetRetryDelay returns the appropriate retry delay for an error.
func GetRetryDelay(err error, attempt int) time.Duration {
	// Check for rate limit errors with specific retry-after
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsRateLimit() {
		if retryAfter, ok := apiErr.Details["retry_after"].(float64); ok {
			return time.Duration(retryAfter) * time.Second
		}
	}

	// attempt 1: 1s, attempt 2: 2s, attempt 3: 4s, etc.
	if attempt < 1 {
		attempt = 1
	}
	delay := time.Second * time.Duration(1<<uint(attempt-1))
	maxDelay := time.Minute
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}

	return delay
}
