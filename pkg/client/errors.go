package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/transferdesk/transferdesk/pkg/protocol"
)

// APIError is a 4xx/5xx response from the backend.
type APIError struct {
	Status  int
	Message string // reason from the body, may be empty
	Method  string
	Path    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// NetworkError is a transport failure: the request never got a response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message converts err into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("Request failed with status %d", apiErr.Status)
	}
	if errors.Is(err, protocol.ErrMalformed) {
		detail := err.Error()
		prefix := protocol.ErrMalformed.Error() + ": "
		if i := strings.Index(detail, prefix); i >= 0 {
			detail = detail[i+len(prefix):]
		}
		return "Unexpected response from server: " + detail
	}
	if errors.Is(err, context.Canceled) {
		return "Request cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "Network error: " + netErr.Err.Error()
	}
	return err.Error()
}

func retryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return !errors.Is(err, context.Canceled)
	}
	return StatusCode(err) >= 500
}
