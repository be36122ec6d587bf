package billing

import (
	"fmt"
	"strings"
	"time"
)

// Status is an invoice status. Overdue is derived and never stored.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// AllStatuses is the display order used by reports.
var AllStatuses = []Status{StatusDraft, StatusPending, StatusPaid, StatusOverdue, StatusCancelled}

var transitions = map[Status][]Status{
	StatusDraft:   {StatusPending, StatusCancelled},
	StatusPending: {StatusPaid, StatusCancelled},
}

// ParseStatus accepts any of the five statuses, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", invalid("status", "unknown status %q", s)
}

// IsStored reports whether the status may be persisted.
func (s Status) IsStored() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// IsEditable reports whether items, tax and notes may still change.
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusPending
}

// CanTransition reports whether from -> to is an allowed stored transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the new stored status.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// EffectiveStatus derives the status shown to users. An unpaid, uncancelled invoice
// whose due date is strictly before today's date is overdue; time of day is ignored.
func EffectiveStatus(stored Status, dueDate, now time.Time) Status {
	if stored.IsTerminal() {
		return stored
	}
	if civilDate(dueDate).Before(civilDate(now)) {
		return StatusOverdue
	}
	return stored
}

// IsOverdue is shorthand for EffectiveStatus(...) == StatusOverdue.
func IsOverdue(stored Status, dueDate, now time.Time) bool {
	return EffectiveStatus(stored, dueDate, now) == StatusOverdue
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
