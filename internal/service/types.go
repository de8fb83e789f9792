package service

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted due date format.
const DateLayout = "2006-01-02"

// Task represents a single to-do item.
type Task struct {
	// ID is assigned at creation and never changes.
	ID        string
	Title     string
	Completed bool
	// DueDate is nil when the task has no due date.
	DueDate *Date
}

// Entry is a task as returned by a listing.
// Index is the task's position in the full collection, not in the listing,
// so it stays usable with DeleteAt and CompleteAt even when filtered.
type Entry struct {
	Index int
	Task  Task
}

// Date is a calendar date without time or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses s as YYYY-MM-DD.
// Returns a *FormatError for malformed input or impossible dates (2024-02-30).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &FormatError{Value: s, Err: err}
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
