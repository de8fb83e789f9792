// Package jsonfile implements service.Service on top of a single JSON file.
//
// The whole collection is rewritten after every mutation. Writes go to a
// temporary file in the same directory which is synced and then renamed over
// the target, so a failed save never leaves a half-written file behind.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"todo/internal/service"
)

const (
	// DefaultFileName is the storage file used when none is configured.
	DefaultFileName = "task.json"

	// FormatVersion is written into every saved file.
	FormatVersion = 1

	// DefaultFileMode is used for a task file created by the first save.
	DefaultFileMode os.FileMode = 0644
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRecoverCorrupt makes Load reset to an empty collection instead of
// failing when the file exists but cannot be decoded.
func WithRecoverCorrupt(enabled bool) Option {
	return func(s *Store) {
		s.recoverCorrupt = enabled
	}
}

// WithIDGenerator replaces the UUID generator (for testing).
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store is a file-backed task store. It is not safe for concurrent use.
type Store struct {
	fs             afero.Fs
	path           string
	log            *zap.Logger
	recoverCorrupt bool
	newID          func() string

	tasks   []service.Task
	pending *service.Date
}

var _ service.Service = (*Store)(nil)

// New creates an empty Store backed by path on fs. Nothing is read until Load.
func New(fs afero.Fs, path string, opts ...Option) *Store {
	if path == "" {
		path = DefaultFileName
	}
	s := &Store{
		fs:    fs,
		path:  path,
		log:   zap.NewNop(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a Store and loads it from path.
func Open(fs afero.Fs, path string, opts ...Option) (*Store, error) {
	s := New(fs, path, opts...)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the storage file path.
func (s *Store) Path() string {
	return s.path
}

// Add implements service.Service.
func (s *Store) Add(title string) (service.Task, error) {
	if strings.TrimSpace(title) == "" {
		return service.Task{}, &service.ValidationError{Field: "title", Message: "required"}
	}

	task := service.Task{
		ID:      s.newID(),
		Title:   title,
		DueDate: s.pending,
	}

	if err := s.mutate(func() { s.tasks = append(s.tasks, task) }); err != nil {
		return service.Task{}, err
	}

	s.pending = nil
	s.log.Debug("task added",
		zap.String("id", task.ID),
		zap.Int("index", len(s.tasks)-1),
		zap.Bool("has_due_date", task.DueDate != nil))
	return task, nil
}

// DeleteAt implements service.Service.
func (s *Store) DeleteAt(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	id := s.tasks[index].ID
	if err := s.mutate(func() { s.tasks = slices.Delete(s.tasks, index, index+1) }); err != nil {
		return err
	}
	s.log.Debug("task deleted", zap.String("id", id), zap.Int("index", index))
	return nil
}

// CompleteAt implements service.Service.
func (s *Store) CompleteAt(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	if err := s.mutate(func() { s.tasks[index].Completed = true }); err != nil {
		return err
	}
	s.log.Debug("task completed", zap.String("id", s.tasks[index].ID), zap.Int("index", index))
	return nil
}

// DeleteByID implements service.Service.
func (s *Store) DeleteByID(id string) error {
	index, err := s.indexOf(id)
	if err != nil {
		return err
	}
	return s.DeleteAt(index)
}

// CompleteByID implements service.Service.
func (s *Store) CompleteByID(id string) error {
	index, err := s.indexOf(id)
	if err != nil {
		return err
	}
	return s.CompleteAt(index)
}

// SetPendingDueDate implements service.Service.
func (s *Store) SetPendingDueDate(value string) error {
	d, err := service.ParseDate(value)
	if err != nil {
		return err
	}
	s.pending = &d
	return nil
}

// ClearPendingDueDate implements service.Service.
func (s *Store) ClearPendingDueDate() {
	s.pending = nil
}

// PendingDueDate implements service.Service.
func (s *Store) PendingDueDate() (service.Date, bool) {
	if s.pending == nil {
		return service.Date{}, false
	}
	return *s.pending, true
}

// List implements service.Service.
func (s *Store) List(filter service.Filter, query string) []service.Entry {
	return service.Select(s.tasks, filter, query)
}

// Len implements service.Service.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Save implements service.Service.
func (s *Store) Save() error {
	data, err := encode(s.tasks)
	if err != nil {
		return &service.PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	if err := s.writeAtomic(data); err != nil {
		return &service.PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	s.log.Debug("tasks saved", zap.String("path", s.path), zap.Int("count", len(s.tasks)))
	return nil
}

// Load implements service.Service.
func (s *Store) Load() error {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.tasks = nil
			s.log.Debug("no task file, starting empty", zap.String("path", s.path))
			return nil
		}
		return &service.PersistenceError{Op: "load", Path: s.path, Err: err}
	}

	tasks, err := decode(data)
	if err != nil {
		if !s.recoverCorrupt {
			return &service.PersistenceError{Op: "load", Path: s.path, Err: err}
		}
		s.log.Warn("task file is corrupt, starting empty",
			zap.String("path", s.path),
			zap.Error(err))
		s.tasks = nil
		return nil
	}

	s.tasks = s.assignIDs(tasks)
	s.log.Debug("tasks loaded", zap.String("path", s.path), zap.Int("count", len(s.tasks)))
	return nil
}

// mutate applies fn and saves. If saving fails the collection is restored.
func (s *Store) mutate(fn func()) error {
	prev := slices.Clone(s.tasks)
	fn()
	if err := s.Save(); err != nil {
		s.tasks = prev
		return err
	}
	return nil
}

func (s *Store) checkIndex(index int) error {
	if index < 0 || index >= len(s.tasks) {
		return &service.SelectionError{Index: index, Len: len(s.tasks)}
	}
	return nil
}

func (s *Store) indexOf(id string) (int, error) {
	for i, t := range s.tasks {
		if t.ID == id {
			return i, nil
		}
	}
	return -1, &service.SelectionError{Index: -1, ID: id, Len: len(s.tasks)}
}

// assignIDs gives every task without an ID, or with a duplicate one, a fresh ID.
// Files in the legacy layout carry no IDs at all.
func (s *Store) assignIDs(tasks []service.Task) []service.Task {
	seen := make(map[string]bool, len(tasks))
	for i := range tasks {
		if tasks[i].ID == "" || seen[tasks[i].ID] {
			tasks[i].ID = s.newID()
		}
		seen[tasks[i].ID] = true
	}
	return tasks
}

func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".task-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = s.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// TempFile creates 0600; keep the existing file's mode across saves.
	if err := s.fs.Chmod(tmpPath, s.fileMode()); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// fileMode returns the permissions of the current task file, or
// DefaultFileMode when there is none yet.
func (s *Store) fileMode() os.FileMode {
	info, err := s.fs.Stat(s.path)
	if err != nil {
		return DefaultFileMode
	}
	return info.Mode().Perm()
}

// document is the on-disk layout.
type document struct {
	Version int      `json:"version"`
	Tasks   []record `json:"tasks"`
}

type record struct {
	ID        string        `json:"id,omitempty"`
	Title     string        `json:"title"`
	Completed bool          `json:"completed"`
	DueDate   *service.Date `json:"due_date,omitempty"`
}

func encode(tasks []service.Task) ([]byte, error) {
	doc := document{Version: FormatVersion, Tasks: make([]record, len(tasks))}
	for i, t := range tasks {
		doc.Tasks[i] = record{ID: t.ID, Title: t.Title, Completed: t.Completed, DueDate: t.DueDate}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// decode accepts the versioned document and the legacy bare array of records.
// An empty or whitespace-only file decodes to no tasks.
func decode(data []byte) ([]service.Task, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var records []record
	if data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("invalid task list: %w", err)
		}
	} else {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid task file: %w", err)
		}
		if doc.Version != FormatVersion {
			return nil, fmt.Errorf("unsupported format version: %d", doc.Version)
		}
		records = doc.Tasks
	}

	tasks := make([]service.Task, 0, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.Title) == "" {
			return nil, fmt.Errorf("task %d: missing title", i)
		}
		tasks = append(tasks, service.Task{
			ID:        r.ID,
			Title:     r.Title,
			Completed: r.Completed,
			DueDate:   r.DueDate,
		})
	}
	return tasks, nil
}
