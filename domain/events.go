package domain

import "github.com/bytedance/sonic"

// Intents accepted from viewers.
const (
	CreateTask      = "create-task"
	UpdateTask      = "update-task"
	MoveTask        = "move-task"
	DeleteTask      = "delete-task"
	AddComment      = "add-comment"
	BulkUpdateTasks = "bulk-update-tasks"
	RequestSync     = "request-sync"
)

// Events emitted to viewers.
const (
	Connected      = "connected"
	TaskCreated    = "task-created"
	TaskUpdated    = "task-updated"
	TaskDeleted    = "task-deleted"
	CommentAdded   = "comment-added"
	TasksSynced    = "tasks-synced"
	ActivitySynced = "activity-synced"
	ActivityAdded  = "activity-added"
	ViewersOnline  = "viewers-online"
	ViewersCount   = "viewers-count"
)

// Envelope wraps one viewer intent posted to the event endpoint.
type Envelope struct {
	Event   string                 `json:"event"`
	Payload sonic.NoCopyRawMessage `json:"payload,omitempty"`
}

// MoveRequest is the payload of a move-task intent. SourceColumn and
// DestinationColumn are echoed by clients for their own reconciliation but
// carry no weight server-side: same-column reorders and cross-column moves
// share one positional algorithm.
type MoveRequest struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	DestinationIndex  int    `json:"destinationIndex"`
	SourceColumn      string `json:"sourceColumn,omitempty"`
	DestinationColumn string `json:"destinationColumn,omitempty"`
}

// CommentRequest is the payload of an add-comment intent.
type CommentRequest struct {
	TaskID string `json:"taskId"`
	Text   string `json:"text"`
}

// DeleteRequest is the payload of a delete-task intent.
type DeleteRequest struct {
	ID string `json:"id"`
}

// CommentEvent is broadcast after a comment is appended.
type CommentEvent struct {
	TaskID  string  `json:"taskId"`
	Comment Comment `json:"comment"`
}
