package store

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"kanban-api/domain"
)

// TaskStore holds the canonical ordered sequence of tasks. All mutations
// run under one lock so every operation observes a consistent snapshot;
// column order is derived from position in the flat sequence.
type TaskStore struct {
	mu    sync.Mutex
	tasks []domain.Task
}

// New creates an empty store.
func New() *TaskStore {
	return &TaskStore{}
}

// NewSeeded creates a store preloaded with tasks, preserving their order.
// Used to restore persisted state at startup.
func NewSeeded(tasks []domain.Task) *TaskStore {
	s := &TaskStore{tasks: make([]domain.Task, len(tasks))}
	copy(s.tasks, tasks)
	return s
}

// MoveResult carries everything the relay needs after a move: the mutated
// task, the status it left, and the full reordered collection. Position is
// implicit in array order, so observers need the whole sequence.
type MoveResult struct {
	Task      domain.Task
	OldStatus string
	Tasks     []domain.Task
}

// Create validates the draft, assigns identity and timestamps, and appends
// the task to the end of the collection.
func (s *TaskStore) Create(draft domain.TaskDraft) (domain.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return domain.Task{}, &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	status := draft.Status
	if status == "" {
		status = domain.StatusTodo
	}
	if !domain.ValidStatus(status) {
		return domain.Task{}, &domain.ValidationError{Field: "status", Reason: "unknown status " + status}
	}
	priority := draft.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return domain.Task{}, &domain.ValidationError{Field: "priority", Reason: "unknown priority " + priority}
	}

	now := domain.Now()
	task := domain.Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      status,
		Priority:    priority,
		Category:    draft.Category,
		Tags:        append([]string(nil), draft.Tags...),
		DueDate:     draft.DueDate,
		AssignedTo:  draft.AssignedTo,
		Attachments: append([]domain.Attachment{}, draft.Attachments...),
		Comments:    []domain.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	return task, nil
}

// Update merges the patch into the task at its current position. Supplied
// fields replace the stored value wholesale; the id is never overwritten.
func (s *TaskStore) Update(id string, patch domain.TaskPatch) (domain.Task, error) {
	if patch.Status != nil && !domain.ValidStatus(*patch.Status) {
		return domain.Task{}, &domain.ValidationError{Field: "status", Reason: "unknown status " + *patch.Status}
	}
	if patch.Priority != nil && !domain.ValidPriority(*patch.Priority) {
		return domain.Task{}, &domain.ValidationError{Field: "priority", Reason: "unknown priority " + *patch.Priority}
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domain.Task{}, &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	t := &s.tasks[i]
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Tags != nil {
		t.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.DueDate != nil {
		t.DueDate = *patch.DueDate
	}
	if patch.AssignedTo != nil {
		t.AssignedTo = *patch.AssignedTo
	}
	if patch.Attachments != nil {
		t.Attachments = append([]domain.Attachment{}, (*patch.Attachments)...)
	}
	t.UpdatedAt = domain.Now()
	return *t, nil
}

// Move removes the task from the sequence, sets its status, and reinserts
// it so the destination column shows it at destIndex. Tasks outside the
// destination column never change relative order. Same-column reorders and
// cross-column moves take the identical path.
func (s *TaskStore) Move(id, status string, destIndex int) (MoveResult, error) {
	if !domain.ValidStatus(status) {
		return MoveResult{}, &domain.ValidationError{Field: "status", Reason: "unknown status " + status}
	}
	if destIndex < 0 {
		destIndex = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return MoveResult{}, domain.ErrTaskNotFound
	}
	task := s.tasks[i]
	oldStatus := task.Status
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)

	task.Status = status
	task.UpdatedAt = domain.Now()

	// Positions of the destination column's members in the full sequence,
	// excluding the task just removed.
	var column []int
	for pos, t := range s.tasks {
		if t.Status == status {
			column = append(column, pos)
		}
	}

	insertAt := len(s.tasks)
	switch {
	case len(column) == 0:
		// Empty column: append to the end of the whole collection.
	case destIndex >= len(column):
		insertAt = column[len(column)-1] + 1
	default:
		insertAt = column[destIndex]
	}

	s.tasks = append(s.tasks, domain.Task{})
	copy(s.tasks[insertAt+1:], s.tasks[insertAt:])
	s.tasks[insertAt] = task

	return MoveResult{Task: task, OldStatus: oldStatus, Tasks: s.snapshotLocked()}, nil
}

// Delete removes the task and returns its last state.
func (s *TaskStore) Delete(id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	task := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return task, nil
}

// AddComment appends a comment to the task. The task's UpdatedAt is left
// alone: comments are conversation, not content edits.
func (s *TaskStore) AddComment(taskID, userID, text string) (domain.Comment, domain.Task, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Comment{}, domain.Task{}, &domain.ValidationError{Field: "text", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(taskID)
	if i < 0 {
		return domain.Comment{}, domain.Task{}, domain.ErrTaskNotFound
	}
	comment := domain.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		UserID:    userID,
		CreatedAt: domain.Now(),
	}
	t := &s.tasks[i]
	// Fresh backing array so previously returned snapshots stay intact.
	t.Comments = append(append([]domain.Comment{}, t.Comments...), comment)
	return comment, *t, nil
}

// BulkReplace swaps each existing task for its patch wholesale. Patches
// referencing unknown ids are ignored, never created. Returns the full
// resulting collection.
func (s *TaskStore) BulkReplace(patches []domain.Task) []domain.Task {
	byID := make(map[string]domain.Task, len(patches))
	for _, p := range patches {
		byID[p.ID] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if repl, ok := byID[t.ID]; ok {
			s.tasks[i] = repl
		}
	}
	return s.snapshotLocked()
}

// List returns a copy of the full ordered collection.
func (s *TaskStore) List() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len reports the number of tasks.
func (s *TaskStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *TaskStore) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskStore) snapshotLocked() []domain.Task {
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}
