package service

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	// ErrValidation indicates missing or empty required input.
	ErrValidation = errors.New("validation error")
	// ErrSelection indicates a task index or ID that does not exist.
	ErrSelection = errors.New("selection error")
	// ErrFormat indicates a due date that is not a valid YYYY-MM-DD date.
	ErrFormat = errors.New("format error")
	// ErrPersistence indicates storage that cannot be read or written.
	ErrPersistence = errors.New("persistence error")
)

// ValidationError reports empty or missing required input.
// The collection is unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// SelectionError reports an index out of range or an unknown task ID.
// The collection is unchanged.
type SelectionError struct {
	Index int    // -1 when selecting by ID
	ID    string // empty when selecting by index
	Len   int    // collection length at the time of the call
}

func (e *SelectionError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("no task with id %q", e.ID)
	}
	return fmt.Sprintf("no task at index %d (have %d)", e.Index, e.Len)
}

// Is reports whether target is ErrSelection.
func (e *SelectionError) Is(target error) bool { return target == ErrSelection }

// FormatError reports a due date string that does not parse.
type FormatError struct {
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid due date %q: want YYYY-MM-DD", e.Value)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// PersistenceError reports a storage file that cannot be loaded or saved.
type PersistenceError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
