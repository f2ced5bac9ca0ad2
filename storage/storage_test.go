package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kanban-api/domain"
)

func TestTasksRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tasks := []domain.Task{
		{ID: "1", Title: "A", Status: domain.StatusTodo, Priority: domain.PriorityHigh,
			Comments:  []domain.Comment{{ID: "c1", Text: "hi", UserID: "v1", CreatedAt: time.Now().UTC().Truncate(time.Second)}},
			CreatedAt: time.Now().UTC().Truncate(time.Second)},
		{ID: "2", Title: "B", Status: domain.StatusDone, Priority: domain.PriorityLow},
	}
	if err := s.SaveTasks(tasks); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.LoadTasks()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].Title != "B" {
		t.Fatalf("unexpected tasks %v", got)
	}
	if len(got[0].Comments) != 1 || got[0].Comments[0].Text != "hi" {
		t.Fatalf("comments lost: %v", got[0].Comments)
	}
}

func TestActivityRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	entries := []domain.Activity{
		{ID: "a2", Type: domain.ActivityMove, TaskID: "1", TaskTitle: "A",
			OldStatus: domain.StatusTodo, NewStatus: domain.StatusDone, UserID: "v1"},
		{ID: "a1", Type: domain.ActivityCreate, TaskID: "1", TaskTitle: "A", UserID: "v1"},
	}
	if err := s.SaveActivity(entries); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.LoadActivity()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a2" || got[0].OldStatus != domain.StatusTodo {
		t.Fatalf("unexpected entries %v", got)
	}
}

func TestLoadMissingFilesMeansEmpty(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tasks, err := s.LoadTasks()
	if err != nil || tasks != nil {
		t.Fatalf("expected empty state, got %v / %v", tasks, err)
	}
	entries, err := s.LoadActivity()
	if err != nil || entries != nil {
		t.Fatalf("expected empty state, got %v / %v", entries, err)
	}
}

func TestLoadCorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.LoadTasks(); err == nil {
		t.Fatal("expected error for corrupt document")
	}
}

func TestSaveOverwritesWholeDocument(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.SaveTasks([]domain.Task{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveTasks([]domain.Task{{ID: "2", Title: "B"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.LoadTasks()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected full overwrite, got %v", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "tasks.json.tmp")); !os.IsNotExist(err) {
		t.Fatal("temp file must not survive a save")
	}
}

func TestNewRequiresDir(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty dir")
	}
}
