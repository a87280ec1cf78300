package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrUnauthenticated is returned when an operation requires a signed-in session.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when creating a resource that already exists.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session has been signed out.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrOperationFailed wraps store failures other than not-found.
	ErrOperationFailed = errors.New("application: operation failed")
	// ErrInvalidTransition is returned for session state changes outside the sign-in flow.
	ErrInvalidTransition = errors.New("application: invalid session transition")
)

// ValidationError captures field level validation issues that callers can surface to users.
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

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// Booking rejection reasons.
const (
	ReasonMissingFields = "missing fields"
	ReasonInvalidOrder  = "invalid order"
	ReasonEndInPast     = "end time not in future"
)

// BookingRejection reports why a booking candidate was refused.
type BookingRejection struct {
	Reason string
}

func (r *BookingRejection) Error() string {
	return "booking rejected: " + r.Reason
}

// BatchDeleteError reports a delete-all-for-room batch in which some deletes
// failed. Deletes that succeeded are not rolled back.
type BatchDeleteError struct {
	RoomID string
	Total  int
	Failed int
	Err    error
}

func (e *BatchDeleteError) Error() string {
	return fmt.Sprintf("delete bookings for room %s: %d of %d deletes failed: %v", e.RoomID, e.Failed, e.Total, e.Err)
}

func (e *BatchDeleteError) Unwrap() error {
	return e.Err
}

// CascadeError reports a room whose bookings were removed but whose own
// delete failed, leaving the room without bookings.
type CascadeError struct {
	RoomID          string
	DeletedBookings int
	Err             error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("room %s kept after %d bookings were deleted: %v", e.RoomID, e.DeletedBookings, e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}
