package service

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Filter restricts a listing by completion state.
type Filter int

const (
	FilterAll Filter = iota
	FilterCompleted
	FilterIncomplete
)

// ParseFilter parses a filter name (case-insensitive). Empty means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "completed", "done":
		return FilterCompleted, nil
	case "incomplete", "open":
		return FilterIncomplete, nil
	default:
		return FilterAll, fmt.Errorf("invalid filter: %s (want all, completed or incomplete)", s)
	}
}

func (f Filter) String() string {
	switch f {
	case FilterCompleted:
		return "completed"
	case FilterIncomplete:
		return "incomplete"
	default:
		return "all"
	}
}

// Allows reports whether t passes the filter.
func (f Filter) Allows(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterIncomplete:
		return !t.Completed
	default:
		return true
	}
}

// MatchesQuery reports whether title contains query, ignoring case.
// An empty query matches every title.
func MatchesQuery(title, query string) bool {
	if query == "" {
		return true
	}
	// A Caser may hold state, so each call gets its own.
	fold := cases.Fold()
	return strings.Contains(fold.String(title), fold.String(query))
}

// Select returns the tasks that pass filter and query, in their original
// order, each paired with its position in tasks.
func Select(tasks []Task, filter Filter, query string) []Entry {
	entries := make([]Entry, 0, len(tasks))
	for i, t := range tasks {
		if !filter.Allows(t) || !MatchesQuery(t.Title, query) {
			continue
		}
		entries = append(entries, Entry{Index: i, Task: t})
	}
	return entries
}
