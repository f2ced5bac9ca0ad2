package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"kanban-api/domain"
)

const (
	tasksFile    = "tasks.json"
	activityFile = "activity.json"
)

// Storage dumps the full in-memory collections to two independently
// overwritten JSON documents. Writes are atomic (temp file, fsync, rename)
// so a crash mid-write never corrupts the previous snapshot.
type Storage struct {
	dir string
}

// New creates the data directory if needed and returns a Storage over it.
func New(dir string) (*Storage, error) {
	if dir == "" {
		return nil, errors.New("storage: data dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Storage{dir: dir}, nil
}

// SaveTasks overwrites the persisted task collection.
func (s *Storage) SaveTasks(tasks []domain.Task) error {
	return s.writeDocument(tasksFile, tasks)
}

// LoadTasks reads the persisted task collection. A missing file means an
// empty board, not an error.
func (s *Storage) LoadTasks() ([]domain.Task, error) {
	var tasks []domain.Task
	if err := s.readDocument(tasksFile, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SaveActivity overwrites the persisted activity log.
func (s *Storage) SaveActivity(entries []domain.Activity) error {
	return s.writeDocument(activityFile, entries)
}

// LoadActivity reads the persisted activity log, newest first.
func (s *Storage) LoadActivity() ([]domain.Activity, error) {
	var entries []domain.Activity
	if err := s.readDocument(activityFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Storage) writeDocument(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := syncFile(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	return syncDir(s.dir)
}

func (s *Storage) readDocument(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

func syncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	defer dir.Close()
	return dir.Sync()
}
