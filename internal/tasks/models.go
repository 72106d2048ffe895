package tasks

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p.rank() > 0
}

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// EstimatedDuration is a coarse size label, not a time.Duration.
type EstimatedDuration string

const (
	Duration15m EstimatedDuration = "15m"
	Duration30m EstimatedDuration = "30m"
	Duration1h  EstimatedDuration = "1h"
	Duration2h  EstimatedDuration = "2h"
	Duration4h  EstimatedDuration = "4h"
	Duration1d  EstimatedDuration = "1d"
)

var durations = []EstimatedDuration{Duration15m, Duration30m, Duration1h, Duration2h, Duration4h, Duration1d}

func (d EstimatedDuration) Valid() bool {
	for _, v := range durations {
		if d == v {
			return true
		}
	}
	return false
}

// PurgeAfter is how long a completed task is kept before the purger may
// delete it.
const PurgeAfter = 24 * time.Hour

var ErrNotFound = errors.New("task not found")

type Task struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"user_id"`
	IdeaID            *uuid.UUID        `json:"idea_id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Status            Status            `json:"status"`
	Priority          Priority          `json:"priority"`
	EstimatedDuration EstimatedDuration `json:"estimated_duration"`
	DueDate           *time.Time        `json:"due_date"`
	NeedsUserInput    bool              `json:"needs_user_input"`
	TimelineQuestion  *string           `json:"timeline_question"`
	NotificationSent  bool              `json:"notification_sent"`
	CompletedAt       *time.Time        `json:"completed_at"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ApplyStatus moves t to status s. completed_at is stamped on the transition
// into completed and cleared on the way out. It reports whether the status
// changed.
func ApplyStatus(t *Task, s Status, now time.Time) bool {
	if t.Status == s {
		return false
	}
	t.Status = s
	if s == StatusCompleted {
		at := now.UTC()
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
	t.UpdatedAt = now.UTC()
	return true
}

// ResolveDueDate sets the deadline. A resolved date answers any outstanding
// timeline question.
func ResolveDueDate(t *Task, due *time.Time) {
	t.DueDate = due
	if due != nil {
		t.NeedsUserInput = false
		t.TimelineQuestion = nil
	}
}

func EligibleForPurge(t Task, now time.Time) bool {
	if t.Status != StatusCompleted || t.CompletedAt == nil {
		return false
	}
	return t.CompletedAt.Before(now.Add(-PurgeAfter))
}

// SortForDisplay orders by priority, then earliest deadline (undated last),
// then creation time.
func SortForDisplay(list []Task) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() > b.Priority.rank()
		}
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// ParseDueDate accepts a calendar date (YYYY-MM-DD) and, as a fallback, an
// RFC 3339 timestamp truncated to its date. The result is midnight UTC.
func ParseDueDate(s string) (time.Time, error) {
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}
