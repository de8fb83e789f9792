// Package service defines the task store contract used by every command.
package service

// Service defines the operations of a task store.
// Commands never touch storage directly; they go through this interface.
//
// Indices are 0-based positions in insertion order. An index is only
// meaningful until the next mutation; callers must list again before
// deriving new indices. IDs are stable for the lifetime of a task.
//
// Every mutating call persists the whole collection before returning.
// When persisting fails the mutation is rolled back.
type Service interface {
	// Add appends a new incomplete task carrying the pending due date,
	// then clears the pending due date.
	// Returns *ValidationError if title is empty or blank.
	Add(title string) (Task, error)

	// DeleteAt removes the task at index; later tasks shift down by one.
	// Returns *SelectionError if index is out of range.
	DeleteAt(index int) error

	// CompleteAt marks the task at index completed. Idempotent.
	// Returns *SelectionError if index is out of range.
	CompleteAt(index int) error

	// DeleteByID removes the task with the given ID.
	// Returns *SelectionError if no task has that ID.
	DeleteByID(id string) error

	// CompleteByID marks the task with the given ID completed. Idempotent.
	// Returns *SelectionError if no task has that ID.
	CompleteByID(id string) error

	// SetPendingDueDate stages a YYYY-MM-DD date for the next Add only.
	// Returns *FormatError and keeps the previous pending date if s
	// does not parse.
	SetPendingDueDate(s string) error

	// ClearPendingDueDate drops any staged due date.
	ClearPendingDueDate()

	// PendingDueDate returns the staged due date, if any.
	PendingDueDate() (Date, bool)

	// List returns the tasks passing filter and query in insertion order.
	// It does not change the collection.
	List(filter Filter, query string) []Entry

	// Len returns the number of tasks.
	Len() int

	// Save writes the whole collection to storage.
	Save() error

	// Load replaces the collection with the contents of storage.
	// Missing storage yields an empty collection.
	Load() error
}
