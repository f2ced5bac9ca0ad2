package domain

import "time"

// Board columns. A column is a filter over the flat task list by status,
// not a stored entity.
const (
	StatusTodo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// ValidStatus reports whether s names one of the board columns.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority level.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Attachment describes an uploaded file linked to a task. The file body
// lives behind URL; only metadata is kept here.
type Attachment struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Comment is owned by its parent task and is append-only.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task represents a single board card. Its position in the store's flat
// sequence determines render order within its status column.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Category    string       `json:"category,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	DueDate     string       `json:"dueDate,omitempty"`
	AssignedTo  string       `json:"assignedTo,omitempty"`
	Attachments []Attachment `json:"attachments"`
	Comments    []Comment    `json:"comments"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TaskDraft carries the client-supplied fields of a new task. The server
// assigns identity and timestamps.
type TaskDraft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Category    string       `json:"category"`
	Tags        []string     `json:"tags"`
	DueDate     string       `json:"dueDate"`
	AssignedTo  string       `json:"assignedTo"`
	Attachments []Attachment `json:"attachments"`
}

// TaskPatch carries a partial update. Nil fields are left untouched;
// supplied fields replace the existing value wholesale.
type TaskPatch struct {
	ID          string        `json:"id"`
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Status      *string       `json:"status"`
	Priority    *string       `json:"priority"`
	Category    *string       `json:"category"`
	Tags        *[]string     `json:"tags"`
	DueDate     *string       `json:"dueDate"`
	AssignedTo  *string       `json:"assignedTo"`
	Attachments *[]Attachment `json:"attachments"`
}
