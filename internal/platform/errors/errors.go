// Package errors provides typed error kinds so the orchestration layer can decide,
// per kind, whether to log and continue or abort a cycle.
package errors

import (
	"errors"
	"fmt"
)

// Kind represents the category of error for metrics labels and cycle decisions.
type Kind string

const (
	// KindConfigAbsent means a persisted store does not exist yet. Callers treat it as empty.
	KindConfigAbsent Kind = "config_absent"
	// KindStorageRead means a store exists but could not be read.
	KindStorageRead Kind = "storage_read"
	// KindStorageWrite means persisting the marker or appending to the ledger failed.
	KindStorageWrite Kind = "storage_write"
	// KindUpstream means a generative or social API call failed.
	KindUpstream Kind = "upstream"
	// KindLock means the run lock could not be evaluated.
	KindLock Kind = "lock"
	// KindValidation indicates invalid input.
	KindValidation Kind = "validation"
	// KindUnknown is reported for errors that carry no kind.
	KindUnknown Kind = "unknown"
)

// ErrConfigAbsent is returned by state stores when nothing has been persisted yet.
var ErrConfigAbsent = errors.New("state not found")

// Error represents a structured error with kind, message, and context.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// StorageReadError wraps a failed read of the marker or ledger store.
func StorageReadError(message string, cause error) *Error {
	return newError(KindStorageRead, message, cause)
}

// StorageWriteError wraps a failed marker overwrite or ledger append.
func StorageWriteError(message string, cause error) *Error {
	return newError(KindStorageWrite, message, cause)
}

// UpstreamError wraps a failed call to the generative or social API.
func UpstreamError(message string, cause error) *Error {
	return newError(KindUpstream, message, cause)
}

// LockError wraps a failure to acquire or release the run lock.
func LockError(message string, cause error) *Error {
	return newError(KindLock, message, cause)
}

// ValidationError creates a new validation error.
func ValidationError(message string) *Error {
	return newError(KindValidation, message, nil)
}

// WithField adds a context field to the error (chainable).
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// KindOf reports the kind of err. Absent stores map to KindConfigAbsent even when
// they were not wrapped in an *Error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var structured *Error
	if errors.As(err, &structured) {
		return structured.Kind
	}
	if errors.Is(err, ErrConfigAbsent) {
		return KindConfigAbsent
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
