package jsonfile_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"todo/internal/backend/jsonfile"
	"todo/internal/service"
)

const testPath = "/data/task.json"

// sequentialIDs returns an ID generator producing id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newStore(t *testing.T, fs afero.Fs, opts ...jsonfile.Option) *jsonfile.Store {
	t.Helper()
	opts = append([]jsonfile.Option{jsonfile.WithIDGenerator(sequentialIDs())}, opts...)
	s, err := jsonfile.Open(fs, testPath, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func mustAdd(t *testing.T, s *jsonfile.Store, titles ...string) {
	t.Helper()
	for _, title := range titles {
		if _, err := s.Add(title); err != nil {
			t.Fatalf("Add(%q): %v", title, err)
		}
	}
}

func titles(entries []service.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Task.Title
	}
	return out
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	s := newStore(t, afero.NewMemMapFs())
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d tasks", s.Len())
	}
}

func TestOpen_EmptyFileIsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, testPath, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	s := newStore(t, fs)
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d tasks", s.Len())
	}
}

func TestAdd_AppendsIncompleteTask(t *testing.T) {
	s := newStore(t, afero.NewMemMapFs())
	mustAdd(t, s, "Buy milk")

	task, err := s.Add("Walk dog")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 tasks, got %d", s.Len())
	}
	if task.ID != "id-2" || task.Title != "Walk dog" || task.Completed || task.DueDate != nil {
		t.Errorf("unexpected task %+v", task)
	}

	last := s.List(service.FilterAll, "")[1]
	if last.Index != 1 || last.Task != task {
		t.Errorf("expected new task last, got %+v", last)
	}
}

func TestAdd_EmptyTitle(t *testing.T) {
	s := newStore(t, afero.NewMemMapFs())
	mustAdd(t, s, "Buy milk")

	for _, title := range []string{"", "   ", "\t"} {
		_, err := s.Add(title)
		if !errors.Is(err, service.ErrValidation) {
			t.Errorf("Add(%q): expected ErrValidation, got %v", title, err)
		}
	}
	if s.Len() != 1 {
		t.Errorf("expected length unchanged, got %d", s.Len())
	}
}

func TestAdd_PersistsEveryMutation(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newStore(t, fs)
	mustAdd(t, s, "Buy milk")

	reloaded := newStore(t, fs)
	if reloaded.Len() != 1 {
		t.Errorf("expected 1 persisted task, got %d", reloaded.Len())
	}
}

func TestPendingDueDate(t *testing.T) {
	s := newStore(t, afero.NewMemMapFs())

	if err := s.SetPendingDueDate("2024-02-30"); !errors.Is(err, service.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if _, ok := s.PendingDueDate(); ok {
		t.Error("failed parse must not stage a date")
	}

	if err := s.SetPendingDueDate("2024-02-29"); err != nil {
		t.Fatalf("SetPendingDueDate: %v", err)
	}

	// A failed parse keeps the previous pending value.
	if err := s.SetPendingDueDate("tomorrow"); err == nil {
		t.Fatal("expected error")
	}
	if d, ok := s.PendingDueDate(); !ok || d.String() != "2024-02-29" {
		t.Errorf("expected pending 2024-02-29, got %v %v", d, ok)
	}

	task, err := s.Add("Leap day party")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if task.DueDate == nil || task.DueDate.String() != "2024-02-29" {
		t.Errorf("expected due date 2024-02-29, got %v", task.DueDate)
	}

	// Consumed by the add.
	if _, ok := s.PendingDueDate(); ok {
		t.Error("pending due date should be cleared after add")
	}
	next, _ := s.Add("No date")
	if next.DueDate != nil {
		t.Errorf("expected no due date on second add, got %v", next.DueDate)
	}
}

func TestClearPendingDueDate(t *testing.T) {
	s := newStore(t, afero.NewMemMapFs())
	if err := s.SetPendingDueDate("2030-01-01"); err != nil {
		t.Fatal(err)
	}
	s.ClearPendingDueDate()

	task, _ := s.Add("Plain")
	if task.DueDate != nil {
		t.Errorf("expected no due date, got %v", task.DueDate)
	}
}

func TestCompleteAt(t *testing.T) {
	s := newStore(t, afero.NewMemMapFs())
	mustAdd(t, s, "a", "b", "c")

	if err := s.CompleteAt(1); err != nil {
		t.Fatalf("CompleteAt: %v", err)
	}
	entries := s.List(service.FilterAll, "")
	if !entries[1].Task.Completed || entries[0].Task.Completed || entries[2].Task.Completed {
		t.Errorf("expected only index 1 completed, got %+v", entries)
	}

	// Idempotent.
	if err := s.CompleteAt(1); err != nil {
		t.Fatalf("second CompleteAt: %v", err)
	}
	if !s.List(service.FilterAll, "")[1].Task.Completed {
		t.Error("task should stay completed")
	}
}

func TestDeleteAt_ShiftsLaterTasks(t *testing.T) {
	s := newStore(t, afero.NewMemMapFs())
	mustAdd(t, s, "a", "b", "c", "d")

	if err := s.DeleteAt(1); err != nil {
		t.Fatalf("DeleteAt: %v", err)
	}
	got := strings.Join(titles(s.List(service.FilterAll, "")), ",")
	if got != "a,c,d" {
		t.Errorf("expected a,c,d, got %s", got)
	}
}

func TestSelectionErrors(t *testing.T) {
	s := newStore(t, afero.NewMemMapFs())
	mustAdd(t, s, "a", "b")

	for _, index := range []int{-1, 2, 10} {
		if err := s.DeleteAt(index); !errors.Is(err, service.ErrSelection) {
			t.Errorf("DeleteAt(%d): expected ErrSelection, got %v", index, err)
		}
		if err := s.CompleteAt(index); !errors.Is(err, service.ErrSelection) {
			t.Errorf("CompleteAt(%d): expected ErrSelection, got %v", index, err)
		}
	}
	if err := s.DeleteByID("nope"); !errors.Is(err, service.ErrSelection) {
		t.Errorf("DeleteByID: expected ErrSelection, got %v", err)
	}
	if err := s.CompleteByID("nope"); !errors.Is(err, service.ErrSelection) {
		t.Errorf("CompleteByID: expected ErrSelection, got %v", err)
	}

	entries := s.List(service.FilterAll, "")
	if len(entries) != 2 || entries[0].Task.Completed || entries[1].Task.Completed {
		t.Errorf("collection changed after failed selections: %+v", entries)
	}
}

func TestByID(t *testing.T) {
	s := newStore(t, afero.NewMemMapFs())
	mustAdd(t, s, "a", "b", "c")

	if err := s.CompleteByID("id-3"); err != nil {
		t.Fatalf("CompleteByID: %v", err)
	}
	if err := s.DeleteByID("id-1"); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}

	entries := s.List(service.FilterAll, "")
	if len(entries) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(entries))
	}
	if entries[0].Task.ID != "id-2" || entries[1].Task.ID != "id-3" || !entries[1].Task.Completed {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestList_FilterAndSearch(t *testing.T) {
	s := newStore(t, afero.NewMemMapFs())
	mustAdd(t, s, "Buy milk", "Walk dog", "Oat MILK", "Call mom")
	if err := s.CompleteAt(0); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteAt(3); err != nil {
		t.Fatal(err)
	}

	completed := s.List(service.FilterCompleted, "")
	if got := strings.Join(titles(completed), ","); got != "Buy milk,Call mom" {
		t.Errorf("completed: got %s", got)
	}

	milk := s.List(service.FilterAll, "milk")
	if got := strings.Join(titles(milk), ","); got != "Buy milk,Oat MILK" {
		t.Errorf("search: got %s", got)
	}
	if milk[1].Index != 2 {
		t.Errorf("expected full-collection index 2, got %d", milk[1].Index)
	}

	openMilk := s.List(service.FilterIncomplete, "milk")
	if got := strings.Join(titles(openMilk), ","); got != "Oat MILK" {
		t.Errorf("incomplete search: got %s", got)
	}

	if s.Len() != 4 {
		t.Error("List must not mutate the collection")
	}
}

func TestRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newStore(t, fs)
	mustAdd(t, s, "First")
	if err := s.SetPendingDueDate("2024-02-29"); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, s, "Second", "Third")
	if err := s.CompleteAt(2); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := newStore(t, fs)
	want := s.List(service.FilterAll, "")
	got := reloaded.List(service.FilterAll, "")
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i].Task, got[i].Task
		if w.ID != g.ID || w.Title != g.Title || w.Completed != g.Completed {
			t.Errorf("task %d: want %+v, got %+v", i, w, g)
		}
		if (w.DueDate == nil) != (g.DueDate == nil) || (w.DueDate != nil && *w.DueDate != *g.DueDate) {
			t.Errorf("task %d: due date mismatch %v vs %v", i, w.DueDate, g.DueDate)
		}
	}
}

func TestSave_FileLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newStore(t, fs)
	if err := s.SetPendingDueDate("2024-02-29"); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, s, "Buy milk")
	mustAdd(t, s, "Walk dog")

	data, err := afero.ReadFile(fs, testPath)
	if err != nil {
		t.Fatal(err)
	}
	want := `{
  "version": 1,
  "tasks": [
    {
      "id": "id-1",
      "title": "Buy milk",
      "completed": false,
      "due_date": "2024-02-29"
    },
    {
      "id": "id-2",
      "title": "Walk dog",
      "completed": false
    }
  ]
}
`
	if string(data) != want {
		t.Errorf("unexpected file contents:\n%s", data)
	}

	// No temp files left behind.
	infos, err := afero.ReadDir(fs, "/data")
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Errorf("expected only task.json in /data, got %d entries", len(infos))
	}
}

func TestLoad_LegacyArray(t *testing.T) {
	fs := afero.NewMemMapFs()
	legacy := `[{"title": "Buy milk", "completed": true}, {"title": "Walk dog", "completed": false, "due_date": "2024-03-01"}]`
	if err := afero.WriteFile(fs, testPath, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	s := newStore(t, fs)
	entries := s.List(service.FilterAll, "")
	if len(entries) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(entries))
	}
	if entries[0].Task.ID != "id-1" || entries[1].Task.ID != "id-2" {
		t.Errorf("expected IDs assigned on load, got %q %q", entries[0].Task.ID, entries[1].Task.ID)
	}
	if !entries[0].Task.Completed || entries[1].Task.DueDate.String() != "2024-03-01" {
		t.Errorf("unexpected tasks %+v", entries)
	}
}

func TestLoad_DuplicateIDsReassigned(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `{"version": 1, "tasks": [{"id": "x", "title": "a"}, {"id": "x", "title": "b"}]}`
	if err := afero.WriteFile(fs, testPath, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	s := newStore(t, fs)
	entries := s.List(service.FilterAll, "")
	if entries[0].Task.ID != "x" || entries[1].Task.ID == "x" {
		t.Errorf("expected second duplicate to be reassigned, got %q %q", entries[0].Task.ID, entries[1].Task.ID)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	cases := map[string]string{
		"not json":        "{{{",
		"wrong version":   `{"version": 2, "tasks": []}`,
		"missing version": `{"tasks": []}`,
		"missing title":   `{"version": 1, "tasks": [{"completed": true}]}`,
		"bad due date":    `{"version": 1, "tasks": [{"title": "a", "due_date": "2024-02-30"}]}`,
		"wrong shape":     `[1, 2, 3]`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, testPath, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := jsonfile.Open(fs, testPath)
			if !errors.Is(err, service.ErrPersistence) {
				t.Fatalf("expected ErrPersistence, got %v", err)
			}
			var pe *service.PersistenceError
			if !errors.As(err, &pe) || pe.Op != "load" || pe.Path != testPath {
				t.Errorf("unexpected error detail %v", err)
			}
		})
	}
}

func TestLoad_CorruptRecovery(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, testPath, []byte("{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	s := newStore(t, fs, jsonfile.WithRecoverCorrupt(true))
	if s.Len() != 0 {
		t.Fatalf("expected empty store after recovery, got %d", s.Len())
	}

	// The corrupt file stays until the next save.
	data, _ := afero.ReadFile(fs, testPath)
	if string(data) != "{{{" {
		t.Errorf("corrupt file should be untouched, got %q", data)
	}

	mustAdd(t, s, "fresh start")
	if newStore(t, fs).Len() != 1 {
		t.Error("expected the save to replace the corrupt file")
	}
}

func TestMutation_RolledBackWhenSaveFails(t *testing.T) {
	base := afero.NewMemMapFs()
	seed := `{"version": 1, "tasks": [{"id": "a", "title": "keep me"}]}`
	if err := afero.WriteFile(base, testPath, []byte(seed), 0644); err != nil {
		t.Fatal(err)
	}

	s := newStore(t, afero.NewReadOnlyFs(base))
	if err := s.SetPendingDueDate("2024-05-01"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Add("new"); !errors.Is(err, service.ErrPersistence) {
		t.Fatalf("Add: expected ErrPersistence, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected add to be rolled back, got %d tasks", s.Len())
	}
	if _, ok := s.PendingDueDate(); !ok {
		t.Error("pending due date should survive a failed add")
	}

	if err := s.CompleteAt(0); !errors.Is(err, service.ErrPersistence) {
		t.Fatalf("CompleteAt: expected ErrPersistence, got %v", err)
	}
	if s.List(service.FilterAll, "")[0].Task.Completed {
		t.Error("expected completion to be rolled back")
	}

	if err := s.DeleteAt(0); !errors.Is(err, service.ErrPersistence) {
		t.Fatalf("DeleteAt: expected ErrPersistence, got %v", err)
	}
	if s.Len() != 1 {
		t.Error("expected delete to be rolled back")
	}

	data, _ := afero.ReadFile(base, testPath)
	if string(data) != seed {
		t.Errorf("storage must be untouched, got %s", data)
	}
}

func TestSave_KeepsFileMode(t *testing.T) {
	tests := []struct {
		name string
		seed bool
		mode os.FileMode
		want os.FileMode
	}{
		{name: "existing file", seed: true, mode: 0640, want: 0640},
		{name: "existing world-readable", seed: true, mode: 0644, want: 0644},
		{name: "new file", want: jsonfile.DefaultFileMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "task.json")
			if tt.seed {
				if err := os.WriteFile(path, []byte("[]"), tt.mode); err != nil {
					t.Fatal(err)
				}
				// WriteFile is subject to the umask
				if err := os.Chmod(path, tt.mode); err != nil {
					t.Fatal(err)
				}
			}

			s, err := jsonfile.Open(afero.NewOsFs(), path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if _, err := s.Add("x"); err != nil {
				t.Fatalf("Add: %v", err)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("Stat: %v", err)
			}
			if info.Mode().Perm() != tt.want {
				t.Errorf("expected mode %v, got %v", tt.want, info.Mode().Perm())
			}
		})
	}
}
