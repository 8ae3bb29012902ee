package api

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying backend responses. Handlers and services match
// on these with errors.Is; the transport status that produced them travels in
// the wrapping StatusError.
var (
	// ErrUnauthorized is returned for 401 responses. A 401 on the profile
	// endpoint is the signal the session store uses to force a logout.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrForbidden is returned for 403 responses.
	ErrForbidden = errors.New("api: forbidden")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("api: not found")
	// ErrServer is returned for any 5xx response.
	ErrServer = errors.New("api: server error")
	// ErrUnreachable is returned when no response was received at all.
	ErrUnreachable = errors.New("api: backend unreachable")
)

// StatusError carries the HTTP status and the server supplied detail message
// for a failed request, wrapping the matching sentinel.
type StatusError struct {
	Status   int
	Detail   string
	sentinel error
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// Unwrap exposes the sentinel so callers can classify with errors.Is.
func (e *StatusError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.sentinel
}

// ValidationError carries field level messages from a 4xx response. Messages
// arrive already localized by the backend and are surfaced verbatim.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "api: validation failed"
	}
	return fmt.Sprintf("api: validation failed (%d fields)", len(e.Fields))
}

// Detail extracts the server supplied message from an error chain, if any.
func Detail(err error) string {
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.Detail
	}
	return ""
}
