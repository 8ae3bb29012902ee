package application

import "errors"

var (
	// ErrUnauthorized is returned when the backend rejected the held access
	// token, or when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrForbidden is returned when the backend refused an operation for an
	// otherwise authenticated caller. Unlike ErrUnauthorized it never forces
	// a logout.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidCredentials is returned when a login attempt was rejected.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a stored token is no longer accepted.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrBackendUnavailable is returned when no response was received from
	// the backend at all.
	ErrBackendUnavailable = errors.New("application: backend unavailable")
	// ErrServerFault is returned for backend 5xx responses.
	ErrServerFault = errors.New("application: server fault")
	// ErrLoginInFlight is returned when a login is attempted while another
	// one has not resolved yet.
	ErrLoginInFlight = errors.New("application: login already in progress")
	// ErrTooManyAttempts is returned when login attempts exceed the local
	// rate limit.
	ErrTooManyAttempts = errors.New("application: too many login attempts")
)

// ValidationError captures field level validation issues that callers can surface to users.
// Field messages originating from the backend are surfaced verbatim.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// RemoteError decorates a classified backend failure with the server
// supplied detail message, preserving errors.Is classification.
type RemoteError struct {
	Kind   error
	Detail string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return e.Detail
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "remote error"
}

// Unwrap exposes the classification sentinel.
func (e *RemoteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

// RemoteDetail extracts a server supplied detail message from an error chain.
func RemoteDetail(err error) string {
	var rErr *RemoteError
	if errors.As(err, &rErr) {
		return rErr.Detail
	}
	return ""
}
