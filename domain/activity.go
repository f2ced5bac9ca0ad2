package domain

import "time"

const (
	ActivityCreate  = "create"
	ActivityUpdate  = "update"
	ActivityMove    = "move"
	ActivityDelete  = "delete"
	ActivityComment = "comment"
)

// Activity is an append-only audit entry summarizing one mutation.
// TaskTitle is a snapshot taken at mutation time; renaming a task does not
// rewrite old entries.
type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TaskID    string    `json:"taskId"`
	TaskTitle string    `json:"taskTitle"`
	OldStatus string    `json:"oldStatus,omitempty"`
	NewStatus string    `json:"newStatus,omitempty"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}
