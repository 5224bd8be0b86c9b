package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrTimeout marks a request that exceeded the fixed client timeout.
	ErrTimeout = errors.New("backend request timed out")
	// ErrTransport marks a request that never produced an HTTP response.
	ErrTransport = errors.New("backend unreachable")
	// ErrValidation marks input rejected before any request was sent.
	ErrValidation = errors.New("validation failed")
)

// APIError is a non-2xx backend response.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: backend returned status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: backend returned status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Kind is the failure class callers use to decide presentation.
type Kind string

const (
	KindNone         Kind = ""
	KindTimeout      Kind = "timeout"
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindBackend      Kind = "backend"
	KindUnknown      Kind = "unknown"
)

// Classify maps an error returned by this package (or wrapping ErrValidation)
// to its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrValidation) {
		return KindValidation
	}
	if errors.Is(err, ErrTimeout) {
		return KindTimeout
	}
	if errors.Is(err, ErrTransport) {
		return KindNetwork
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
			return KindUnauthorized
		case apiErr.Status == http.StatusNotFound:
			return KindNotFound
		case apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnprocessableEntity:
			return KindValidation
		default:
			return KindBackend
		}
	}
	return KindUnknown
}

// StatusOf returns the backend HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func transportError(method, path string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrTimeout, err)
	}
	return fmt.Errorf("%s %s: %w: %v", method, path, ErrTransport, err)
}
