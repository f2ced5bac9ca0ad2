package domain

import "testing"

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusTodo, StatusInProgress, StatusDone} {
		if !ValidStatus(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "todo", "Backlog"} {
		if ValidStatus(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}

func TestValidPriority(t *testing.T) {
	for _, p := range []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical} {
		if !ValidPriority(p) {
			t.Fatalf("expected %q to be valid", p)
		}
	}
	for _, p := range []string{"", "high", "Blocker"} {
		if ValidPriority(p) {
			t.Fatalf("expected %q to be invalid", p)
		}
	}
}
