package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"idea-tasks-backend/internal/tasks"
)

const (
	MinTasks = 1
	MaxTasks = 4
)

// ErrDecode marks model output that is not JSON or breaks the task schema.
var ErrDecode = errors.New("malformed model output")

// Response is a validated model answer.
type Response struct {
	Message     string      `json:"message"`
	Tasks       []TaskDraft `json:"tasks"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

// TaskDraft is one validated task from a model answer. SuggestedDueDate is
// always YYYY-MM-DD when set.
type TaskDraft struct {
	Title             string                  `json:"title"`
	Description       string                  `json:"description"`
	Priority          tasks.Priority          `json:"priority"`
	EstimatedDuration tasks.EstimatedDuration `json:"estimated_duration"`
	SuggestedDueDate  *string                 `json:"suggested_due_date"`
	NeedsUserInput    bool                    `json:"needs_user_input"`
	TimelineQuestion  *string                 `json:"timeline_question"`
}

// DueDate returns the suggested date as midnight UTC.
func (d TaskDraft) DueDate() *time.Time {
	if d.SuggestedDueDate == nil {
		return nil
	}
	t, err := time.Parse(time.DateOnly, *d.SuggestedDueDate)
	if err != nil {
		return nil
	}
	return &t
}

// Unresolved reports whether the task still waits on the user for timing.
func (d TaskDraft) Unresolved() bool {
	return d.NeedsUserInput || (d.TimelineQuestion != nil && *d.TimelineQuestion != "")
}

func (r Response) NeedsUserInput() bool {
	for _, t := range r.Tasks {
		if t.NeedsUserInput {
			return true
		}
	}
	return false
}

// wire types keep pointers so missing required fields are detectable.
type wireResponse struct {
	Message     *string    `json:"message"`
	Tasks       []wireTask `json:"tasks"`
	Suggestions []string   `json:"suggestions"`
}

type wireTask struct {
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	Priority          *string `json:"priority"`
	EstimatedDuration *string `json:"estimated_duration"`
	SuggestedDueDate  *string `json:"suggested_due_date"`
	NeedsUserInput    *bool   `json:"needs_user_input"`
	TimelineQuestion  *string `json:"timeline_question"`
}

// StripCodeFences removes a surrounding markdown code fence (``` or ```json)
// and whitespace from raw model output.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseResponse strips fences, decodes and validates model output against
// the task schema. Every failure wraps ErrDecode.
func ParseResponse(raw string) (Response, error) {
	body := StripCodeFences(raw)
	if body == "" {
		return Response{}, fmt.Errorf("%w: empty output", ErrDecode)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	var wire wireResponse
	if err := dec.Decode(&wire); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if dec.More() {
		return Response{}, fmt.Errorf("%w: trailing data after JSON object", ErrDecode)
	}

	if wire.Message == nil {
		return Response{}, fmt.Errorf("%w: missing message", ErrDecode)
	}
	if n := len(wire.Tasks); n < MinTasks || n > MaxTasks {
		return Response{}, fmt.Errorf("%w: expected %d..%d tasks, got %d", ErrDecode, MinTasks, MaxTasks, n)
	}

	out := Response{
		Message:     strings.TrimSpace(*wire.Message),
		Tasks:       make([]TaskDraft, 0, len(wire.Tasks)),
		Suggestions: cleanSuggestions(wire.Suggestions),
	}
	for i, wt := range wire.Tasks {
		t, err := validateTask(wt)
		if err != nil {
			return Response{}, fmt.Errorf("%w: task %d: %v", ErrDecode, i+1, err)
		}
		out.Tasks = append(out.Tasks, t)
	}

	return out, nil
}

func validateTask(wt wireTask) (TaskDraft, error) {
	var t TaskDraft

	if wt.Title == nil || strings.TrimSpace(*wt.Title) == "" {
		return t, errors.New("missing title")
	}
	t.Title = strings.TrimSpace(*wt.Title)

	if wt.Description != nil {
		t.Description = strings.TrimSpace(*wt.Description)
	}

	if wt.Priority == nil {
		return t, errors.New("missing priority")
	}
	t.Priority = tasks.Priority(strings.ToLower(strings.TrimSpace(*wt.Priority)))
	if !t.Priority.Valid() {
		return t, fmt.Errorf("priority %q not allowed", *wt.Priority)
	}

	if wt.EstimatedDuration == nil {
		return t, errors.New("missing estimated_duration")
	}
	t.EstimatedDuration = tasks.EstimatedDuration(strings.ToLower(strings.TrimSpace(*wt.EstimatedDuration)))
	if !t.EstimatedDuration.Valid() {
		return t, fmt.Errorf("estimated_duration %q not allowed", *wt.EstimatedDuration)
	}

	if wt.NeedsUserInput == nil {
		return t, errors.New("missing needs_user_input")
	}
	t.NeedsUserInput = *wt.NeedsUserInput

	if wt.SuggestedDueDate != nil && strings.TrimSpace(*wt.SuggestedDueDate) != "" {
		d, err := tasks.ParseDueDate(strings.TrimSpace(*wt.SuggestedDueDate))
		if err != nil {
			return t, fmt.Errorf("suggested_due_date %q is not YYYY-MM-DD", *wt.SuggestedDueDate)
		}
		s := d.Format(time.DateOnly)
		t.SuggestedDueDate = &s
	}

	if t.NeedsUserInput && t.SuggestedDueDate != nil {
		return t, errors.New("task needs user input but already has a due date")
	}

	if wt.TimelineQuestion != nil {
		if q := strings.TrimSpace(*wt.TimelineQuestion); q != "" {
			t.TimelineQuestion = &q
		}
	}

	return t, nil
}

func cleanSuggestions(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
