package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers match with errors.Is; services wrap these with
// detail using fmt.Errorf("%w: ...").
var (
	ErrValidation     = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("not found")

	ErrStorageIO     = errors.New("storage i/o failure")
	ErrStorageFormat = errors.New("storage format error")
	ErrStorageBusy   = errors.New("storage busy")
)

// Authentication failures. All of them match ErrAuthentication.
var (
	ErrTokenMissing       = fmt.Errorf("%w: token missing", ErrAuthentication)
	ErrTokenInvalid       = fmt.Errorf("%w: invalid token", ErrAuthentication)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
)

var (
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrEntryNotFound = fmt.Errorf("entry %w", ErrNotFound)
)

// StorageError describes a failed document store operation. It matches both
// its Kind (ErrStorageIO, ErrStorageFormat or ErrStorageBusy) and the
// underlying cause.
type StorageError struct {
	Op         string
	Collection string
	Kind       error
	Err        error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Collection, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
