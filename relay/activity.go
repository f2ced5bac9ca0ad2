package relay

import (
	"sync"

	"github.com/google/uuid"

	"kanban-api/domain"
)

// DefaultActivityCap bounds the activity log; the oldest entries are
// evicted first once the cap is reached.
const DefaultActivityCap = 100

// ActivityLog is the bounded, newest-first audit trail of board mutations.
// Entries are never mutated after creation.
type ActivityLog struct {
	mu      sync.Mutex
	entries []domain.Activity
	cap     int
}

// NewActivityLog creates a log bounded to at most capacity entries.
// Non-positive capacities fall back to DefaultActivityCap.
func NewActivityLog(capacity int) *ActivityLog {
	if capacity <= 0 {
		capacity = DefaultActivityCap
	}
	return &ActivityLog{cap: capacity}
}

// Record stamps identity and timestamp on the entry, prepends it, and
// trims the tail beyond the cap. The stored entry is returned.
func (l *ActivityLog) Record(a domain.Activity) domain.Activity {
	a.ID = uuid.NewString()
	a.Timestamp = domain.Now()

	l.mu.Lock()
	l.entries = append([]domain.Activity{a}, l.entries...)
	if len(l.entries) > l.cap {
		l.entries = l.entries[:l.cap]
	}
	l.mu.Unlock()
	return a
}

// Recent returns up to n entries, newest first.
func (l *ActivityLog) Recent(n int) []domain.Activity {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]domain.Activity, n)
	copy(out, l.entries[:n])
	return out
}

// All returns a copy of the whole log, newest first.
func (l *ActivityLog) All() []domain.Activity {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Activity, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of retained entries.
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Seed replaces the log contents, trimming to the cap. Used to restore
// persisted state at startup.
func (l *ActivityLog) Seed(entries []domain.Activity) {
	l.mu.Lock()
	l.entries = append([]domain.Activity(nil), entries...)
	if len(l.entries) > l.cap {
		l.entries = l.entries[:l.cap]
	}
	l.mu.Unlock()
}
