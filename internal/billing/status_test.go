package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	testCases := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "draft_to_pending", from: StatusDraft, to: StatusPending, allowed: true},
		{name: "draft_to_cancelled", from: StatusDraft, to: StatusCancelled, allowed: true},
		{name: "pending_to_paid", from: StatusPending, to: StatusPaid, allowed: true},
		{name: "pending_to_cancelled", from: StatusPending, to: StatusCancelled, allowed: true},
		{name: "draft_to_paid_skips_pending", from: StatusDraft, to: StatusPaid},
		{name: "paid_is_terminal", from: StatusPaid, to: StatusPending},
		{name: "paid_cannot_cancel", from: StatusPaid, to: StatusCancelled},
		{name: "cancelled_is_terminal", from: StatusCancelled, to: StatusDraft},
		{name: "overdue_never_stored", from: StatusPending, to: StatusOverdue},
		{name: "pending_back_to_draft", from: StatusPending, to: StatusDraft},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.to)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, got)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tc.from, got)
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusDraft.IsEditable())
	assert.True(t, StatusPending.IsEditable())
	assert.False(t, StatusPaid.IsEditable())
	assert.False(t, StatusCancelled.IsEditable())

	assert.False(t, StatusOverdue.IsStored())
	assert.True(t, StatusCancelled.IsStored())
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Overdue ")
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, st)

	_, err = ParseStatus("archived")
	assert.True(t, IsValidationError(err))
}

func TestEffectiveStatus(t *testing.T) {
	due := date("2024-01-01")

	testCases := []struct {
		name   string
		stored Status
		now    time.Time
		want   Status
	}{
		{name: "pending_day_after_due_is_overdue", stored: StatusPending, now: date("2024-01-02"), want: StatusOverdue},
		{name: "pending_on_due_date_stays_pending", stored: StatusPending, now: date("2024-01-01"), want: StatusPending},
		{name: "late_in_the_day_on_due_date_stays_pending", stored: StatusPending, now: date("2024-01-01").Add(23*time.Hour + 59*time.Minute), want: StatusPending},
		{name: "draft_past_due_is_overdue", stored: StatusDraft, now: date("2024-03-01"), want: StatusOverdue},
		{name: "paid_never_overdue", stored: StatusPaid, now: date("2030-01-01"), want: StatusPaid},
		{name: "cancelled_never_overdue", stored: StatusCancelled, now: date("2030-01-01"), want: StatusCancelled},
		{name: "before_due", stored: StatusPending, now: date("2023-12-15"), want: StatusPending},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EffectiveStatus(tc.stored, due, tc.now))
		})
	}
}

func TestEffectiveStatus_TerminalStatesStableOverTime(t *testing.T) {
	due := date("2024-06-30")
	for _, stored := range []Status{StatusPaid, StatusCancelled} {
		for days := -400; days <= 400; days += 37 {
			now := due.AddDate(0, 0, days)
			assert.Equal(t, stored, EffectiveStatus(stored, due, now))
		}
	}
}

func TestIsOverdue(t *testing.T) {
	assert.True(t, IsOverdue(StatusPending, date("2024-01-01"), date("2024-01-02")))
	assert.False(t, IsOverdue(StatusPaid, date("2024-01-01"), date("2024-01-02")))
}
