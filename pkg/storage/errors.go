package storage

import "errors"

// StorageError represents a domain error from strategy operations.
//
// These are business outcomes (cancelled prompt, denied permission, missing
// connection) as opposed to infrastructure failures, which are wrapped
// normally. The sync manager switches on Code to decide what is silent, what
// becomes a toast, and what aborts an operation.
type StorageError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the filename or location related to the error, if any
	Path string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode represents the category of a storage error.
type ErrorCode int

const (
	// ErrCancelled indicates the user dismissed a prompt. Silent and
	// retryable: the caller reports nothing and waits for the next gesture.
	ErrCancelled ErrorCode = iota

	// ErrPermissionDenied indicates a write was attempted without a
	// permission grant, or the user declined the permission prompt.
	ErrPermissionDenied

	// ErrNotConnected indicates no handle is active; connect or reconnect
	// first.
	ErrNotConnected

	// ErrUnavailable indicates the backing resource exists on record but
	// cannot be reached (directory deleted, bucket unreachable).
	ErrUnavailable

	// ErrIO indicates a read or write against the backing storage failed.
	ErrIO
)

// NewCancelled builds the silent user-cancel error.
func NewCancelled(message string) *StorageError {
	return &StorageError{Code: ErrCancelled, Message: message}
}

// NewPermissionDenied builds a permission error for the given path.
func NewPermissionDenied(message, path string) *StorageError {
	return &StorageError{Code: ErrPermissionDenied, Message: message, Path: path}
}

// NewNotConnected builds the missing-handle error.
func NewNotConnected(message string) *StorageError {
	return &StorageError{Code: ErrNotConnected, Message: message}
}

// NewUnavailable builds the unreachable-resource error for the given path.
func NewUnavailable(message, path string) *StorageError {
	return &StorageError{Code: ErrUnavailable, Message: message, Path: path}
}

// codeIs reports whether err is a StorageError with the given code.
func codeIs(err error, code ErrorCode) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Code == code
}

// IsCancelled reports whether err is a user-cancelled prompt.
func IsCancelled(err error) bool {
	return codeIs(err, ErrCancelled)
}

// IsPermissionDenied reports whether err is a permission denial.
func IsPermissionDenied(err error) bool {
	return codeIs(err, ErrPermissionDenied)
}

// IsNotConnected reports whether err indicates a missing handle.
func IsNotConnected(err error) bool {
	return codeIs(err, ErrNotConnected)
}
