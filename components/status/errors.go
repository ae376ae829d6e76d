package status

import "fmt"

// ValidationError indicates that a user-supplied field failed validation.
//
// Validation stops at the first offending field, so a single error always
// identifies a single field.
type ValidationError struct {
	// Field is the name of the offending field.
	Field string

	// Reason is a human readable description of the violation.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field=%s: %s", e.Field, e.Reason)
}

// ConflictError indicates that an operation would violate a uniqueness
// constraint.
type ConflictError struct {
	// Field is the name of the conflicting field.
	Field string

	// Value is the conflicting value.
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: field=%s value=%s already in use", e.Field, e.Value)
}

// ConnectionError indicates that a hardware connect sequence failed.
type ConnectionError struct {
	// DeviceID identifies the device the operation was performed on.
	DeviceID string

	// Cause is the underlying hardware failure.
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect device: id=%s: %v", e.DeviceID, e.Cause)
}

// Unwrap returns the underlying hardware failure.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// DisconnectionError indicates that a hardware disconnect sequence failed.
type DisconnectionError struct {
	// DeviceID identifies the device the operation was performed on.
	DeviceID string

	// Cause is the underlying hardware failure.
	Cause error
}

func (e *DisconnectionError) Error() string {
	return fmt.Sprintf("failed to disconnect device: id=%s: %v", e.DeviceID, e.Cause)
}

// Unwrap returns the underlying hardware failure.
func (e *DisconnectionError) Unwrap() error {
	return e.Cause
}
