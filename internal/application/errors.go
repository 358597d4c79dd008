package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique resource would be duplicated.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when an email/password pair does not authenticate.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrTokenExpired is returned when a refresh token has passed its expiry.
	ErrTokenExpired = errors.New("application: token expired")
	// ErrTokenRevoked is returned when a refresh token was revoked or rotated away.
	ErrTokenRevoked = errors.New("application: token revoked")
	// ErrTokenInvalid is returned when an access token fails signature or claim checks.
	ErrTokenInvalid = errors.New("application: token invalid")
	// ErrRoomUnavailable is returned when a booking overlaps an existing one.
	ErrRoomUnavailable = errors.New("application: room unavailable for the requested time")
	// ErrInvalidTransition is returned when a meeting status change is not allowed.
	ErrInvalidTransition = errors.New("application: invalid status transition")
	// ErrAttachmentTooLarge is returned when an upload exceeds the configured cap.
	ErrAttachmentTooLarge = errors.New("application: attachment too large")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
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

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}
