package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrBackendUnreachable wraps transport failures.
	ErrBackendUnreachable = errors.New("unable to reach the server, please check that the backend is running")
	// ErrInvalidResponse marks a reply that was not JSON.
	ErrInvalidResponse = errors.New("invalid server response")
)

// Error is a failure reported by the backend, carrying its message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, message string) *Error {
	if message == "" {
		if status >= http.StatusBadRequest {
			message = fmt.Sprintf("Request failed with status %d", status)
		} else {
			message = "Request failed"
		}
	}
	return &Error{Status: status, Message: message}
}

// IsNotFound reports whether err is a not-found style failure.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// IsUnauthorized reports whether the backend rejected the credential.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

// Message returns the server-provided message of err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil && (errors.Is(err, ErrBackendUnreachable) || errors.Is(err, ErrInvalidResponse)) {
		return err.Error()
	}
	return fallback
}

// Normalize converts any failure into an *Error whose message is the server's or fallback.
func Normalize(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, ErrBackendUnreachable) || errors.Is(err, ErrInvalidResponse) {
		return err
	}
	return &Error{Message: fallback}
}
