// Package testutil provides testing utilities.
package testutil

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"todo/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// IDs are assigned as t1, t2, ... in creation order.
type FakeService struct {
	mu      sync.RWMutex
	tasks   []service.Task
	pending *service.Date
	nextID  int

	// Saves counts successful Save calls, including those made by mutations.
	Saves int
	// Loads counts Load calls.
	Loads int

	// Error injection for testing
	AddErr      error
	DeleteErr   error
	CompleteErr error
	SaveErr     error
	LoadErr     error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{}
}

// AddTask adds a task directly, bypassing validation and error injection.
// Returns the assigned ID.
func (f *FakeService) AddTask(title string, completed bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{ID: f.newID(), Title: title, Completed: completed}
	f.tasks = append(f.tasks, t)
	return t.ID
}

// Tasks returns a copy of every task in order.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.tasks)
}

// Add implements service.Service.
func (f *FakeService) Add(title string) (service.Task, error) {
	if f.AddErr != nil {
		return service.Task{}, f.AddErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.TrimSpace(title) == "" {
		return service.Task{}, &service.ValidationError{Field: "title", Message: "required"}
	}
	t := service.Task{ID: f.newID(), Title: title, DueDate: f.pending}
	f.tasks = append(f.tasks, t)
	f.pending = nil
	f.Saves++
	return t, nil
}

// DeleteAt implements service.Service.
func (f *FakeService) DeleteAt(index int) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkIndex(index); err != nil {
		return err
	}
	f.tasks = slices.Delete(f.tasks, index, index+1)
	f.Saves++
	return nil
}

// CompleteAt implements service.Service.
func (f *FakeService) CompleteAt(index int) error {
	if f.CompleteErr != nil {
		return f.CompleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkIndex(index); err != nil {
		return err
	}
	f.tasks[index].Completed = true
	f.Saves++
	return nil
}

// DeleteByID implements service.Service.
func (f *FakeService) DeleteByID(id string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return &service.SelectionError{Index: -1, ID: id, Len: len(f.tasks)}
	}
	f.tasks = slices.Delete(f.tasks, i, i+1)
	f.Saves++
	return nil
}

// CompleteByID implements service.Service.
func (f *FakeService) CompleteByID(id string) error {
	if f.CompleteErr != nil {
		return f.CompleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return &service.SelectionError{Index: -1, ID: id, Len: len(f.tasks)}
	}
	f.tasks[i].Completed = true
	f.Saves++
	return nil
}

// SetPendingDueDate implements service.Service.
func (f *FakeService) SetPendingDueDate(s string) error {
	d, err := service.ParseDate(s)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = &d
	return nil
}

// ClearPendingDueDate implements service.Service.
func (f *FakeService) ClearPendingDueDate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = nil
}

// PendingDueDate implements service.Service.
func (f *FakeService) PendingDueDate() (service.Date, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.pending == nil {
		return service.Date{}, false
	}
	return *f.pending, true
}

// List implements service.Service.
func (f *FakeService) List(filter service.Filter, query string) []service.Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return service.Select(f.tasks, filter, query)
}

// Len implements service.Service.
func (f *FakeService) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tasks)
}

// Save implements service.Service.
func (f *FakeService) Save() error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Saves++
	return nil
}

// Load implements service.Service.
func (f *FakeService) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Loads++
	return f.LoadErr
}

func (f *FakeService) newID() string {
	f.nextID++
	return fmt.Sprintf("t%d", f.nextID)
}

func (f *FakeService) checkIndex(index int) error {
	if index < 0 || index >= len(f.tasks) {
		return &service.SelectionError{Index: index, Len: len(f.tasks)}
	}
	return nil
}

func (f *FakeService) indexOf(id string) int {
	return slices.IndexFunc(f.tasks, func(t service.Task) bool { return t.ID == id })
}
