package tasks

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"idea-tasks-backend/internal/analytics"
	"idea-tasks-backend/internal/auth"
)

func GetTasksHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		status := Status(r.URL.Query().Get("status"))
		if status != "" && !status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		result, err := store.ListTasks(r.Context(), uid, status)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if result == nil {
			result = []Task{}
		}
		SortForDisplay(result)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	}
}

// SetTaskStatusHandler stamps completed_at with now(); nil means time.Now.
func SetTaskStatusHandler(store Store, sink analytics.Sink, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID uuid.UUID `json:"task_id"`
			Status Status    `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.TaskID == uuid.Nil {
			http.Error(w, "task_id required", http.StatusBadRequest)
			return
		}
		if !body.Status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		t, ok := loadOwned(w, r, store, uid, body.TaskID)
		if !ok {
			return
		}

		at := now()
		prev := t.Status
		if ApplyStatus(&t, body.Status, at) {
			if err := store.UpdateTask(r.Context(), t); err != nil {
				writeStoreError(w, err)
				return
			}

			switch {
			case body.Status == StatusCompleted:
				analytics.Emit(r, sink, uid, "task_completed", map[string]any{
					"task_id":                t.ID,
					"idea_id":                t.IdeaID,
					"priority":               t.Priority,
					"time_since_created_sec": int(at.Sub(t.CreatedAt).Seconds()),
				})
			case prev == StatusCompleted:
				analytics.Emit(r, sink, uid, "task_uncompleted", map[string]any{
					"task_id":  t.ID,
					"priority": t.Priority,
				})
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

func UpdateTaskHandler(store Store, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID            uuid.UUID          `json:"task_id"`
			Title             *string            `json:"title"`
			Description       *string            `json:"description"`
			Priority          *Priority          `json:"priority"`
			EstimatedDuration *EstimatedDuration `json:"estimated_duration"`
			DueDate           *string            `json:"due_date"`
			ClearDueDate      bool               `json:"clear_due_date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.TaskID == uuid.Nil {
			http.Error(w, "task_id required", http.StatusBadRequest)
			return
		}

		t, ok := loadOwned(w, r, store, uid, body.TaskID)
		if !ok {
			return
		}

		if body.Title != nil {
			title := strings.TrimSpace(*body.Title)
			if title == "" {
				http.Error(w, "empty title", http.StatusBadRequest)
				return
			}
			t.Title = title
		}
		if body.Description != nil {
			t.Description = strings.TrimSpace(*body.Description)
		}
		if body.Priority != nil {
			if !body.Priority.Valid() {
				http.Error(w, "invalid priority", http.StatusBadRequest)
				return
			}
			t.Priority = *body.Priority
		}
		if body.EstimatedDuration != nil {
			if !body.EstimatedDuration.Valid() {
				http.Error(w, "invalid estimated_duration", http.StatusBadRequest)
				return
			}
			t.EstimatedDuration = *body.EstimatedDuration
		}
		switch {
		case body.ClearDueDate:
			t.DueDate = nil
		case body.DueDate != nil:
			due, err := ParseDueDate(*body.DueDate)
			if err != nil {
				http.Error(w, "invalid due_date", http.StatusBadRequest)
				return
			}
			ResolveDueDate(&t, &due)
			t.NotificationSent = false
		}
		t.UpdatedAt = now().UTC()

		if err := store.UpdateTask(r.Context(), t); err != nil {
			writeStoreError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

func DeleteTaskHandler(store Store, sink analytics.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID uuid.UUID `json:"task_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.TaskID == uuid.Nil {
			http.Error(w, "task_id required", http.StatusBadRequest)
			return
		}

		if err := store.DeleteTask(r.Context(), uid, body.TaskID); err != nil {
			writeStoreError(w, err)
			return
		}

		analytics.Emit(r, sink, uid, "task_deleted", map[string]any{"task_id": body.TaskID})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func loadOwned(w http.ResponseWriter, r *http.Request, store Store, uid, taskID uuid.UUID) (Task, bool) {
	t, err := store.GetTask(r.Context(), uid, taskID)
	if err != nil {
		writeStoreError(w, err)
		return Task{}, false
	}
	return t, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	log.Printf("[WARN] task store error: %v", err)
	http.Error(w, "db error", http.StatusInternalServerError)
}
