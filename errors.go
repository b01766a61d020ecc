package specstory

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes set on *Error for failures that do not map to an HTTP status.
const (
	ErrorCodeNetwork     = "network_error"
	ErrorCodeGraphQL     = "graphql_error"
	ErrorCodeNotModified = "not_modified"
)

// Error is the typed error returned for API and transport failures.
type Error struct {
	Message   string
	Status    int
	Code      string
	RequestID string
	Details   map[string]any

	err error // underlying transport error, if any
}

func (e *Error) Error() string {
	s := "specstory: " + e.Message
	if e.Status != 0 {
		s += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.RequestID != "" {
		s += fmt.Sprintf(" (request id %s)", e.RequestID)
	}
	return s
}

// Unwrap exposes the underlying transport error so callers can match
// against causes like context.DeadlineExceeded.
func (e *Error) Unwrap() error { return e.err }

// ErrNotModified is returned by conditional reads when the server answers
// 304 Not Modified: the caller's copy, identified by the validator it sent,
// is still current.
var ErrNotModified = &Error{
	Message: "resource not modified",
	Status:  http.StatusNotModified,
	Code:    ErrorCodeNotModified,
}

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Bad Request - The request was invalid",
	http.StatusUnauthorized:        "Unauthorized - Invalid API key. Get a new key at https://cloud.specstory.com/api-keys",
	http.StatusForbidden:           "Forbidden - You do not have permission to access this resource",
	http.StatusNotFound:            "Not Found - The requested resource does not exist",
	http.StatusTooManyRequests:     "Too Many Requests - Rate limit exceeded. Please retry after some time",
	http.StatusInternalServerError: "Internal Server Error - Something went wrong on our end",
	http.StatusBadGateway:          "Bad Gateway - The server received an invalid response",
	http.StatusServiceUnavailable:  "Service Unavailable - The service is temporarily unavailable",
	http.StatusGatewayTimeout:      "Gateway Timeout - The server did not respond in time",
}

// errorFromStatus maps an HTTP error status to a typed error.
func errorFromStatus(status int, requestID string) *Error {
	msg, ok := statusMessages[status]
	if !ok {
		msg = fmt.Sprintf("HTTP Error %d", status)
	}
	return &Error{Message: msg, Status: status, RequestID: requestID}
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is an API error with status 401.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsRateLimited reports whether err is an API error with status 429.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

func hasStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}
