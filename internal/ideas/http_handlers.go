package ideas

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"idea-tasks-backend/internal/ai"
	"idea-tasks-backend/internal/analytics"
	"idea-tasks-backend/internal/auth"
	"idea-tasks-backend/internal/tasks"
)

type decomposeRequest struct {
	Idea        string `json:"idea"`
	UserID      string `json:"userId"`
	InputMethod string `json:"inputMethod"` // text/voice
}

type confirmDatesRequest struct {
	Idea             string `json:"idea"`
	UserID           string `json:"userId"`
	PendingID        string `json:"pendingId"`
	DateConfirmation string `json:"dateConfirmation"`
}

type successResponse struct {
	Success               bool           `json:"success"`
	AIResponse            ai.Response    `json:"aiResponse"`
	Idea                  *Idea          `json:"idea,omitempty"`
	Tasks                 []tasks.Task   `json:"tasks,omitempty"`
	NeedsDateConfirmation bool           `json:"needsDateConfirmation"`
	PendingTasks          []ai.TaskDraft `json:"pendingTasks,omitempty"`
	PendingID             *uuid.UUID     `json:"pendingId,omitempty"`
}

type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func DecomposeHandler(svc *Service, sink analytics.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			writeFailure(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var body decomposeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, invalid("invalid json"))
			return
		}
		if err := checkBodyUser(body.UserID, uid); err != nil {
			writeError(w, err)
			return
		}

		res, err := svc.Decompose(r.Context(), DecomposeInput{UserID: uid, Idea: body.Idea})

		// rejected input is not a submission; upstream failures still are
		if err == nil || KindOf(err) != KindInvalidRequest {
			// analytics: idea_submitted (НЕ логируем сырой текст)
			analytics.Emit(r, sink, uid, "idea_submitted", map[string]any{
				"text_len":     len(strings.TrimSpace(body.Idea)),
				"input_method": inputMethod(body.InputMethod),
			})
		}
		if err != nil {
			log.Printf("[WARN] decompose failed user_id=%s: %v", uid, err)
			writeError(w, err)
			return
		}

		emitOutcome(r, sink, uid, res, 1)
		writeResult(w, res)
	}
}

func ConfirmDatesHandler(svc *Service, sink analytics.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			writeFailure(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var body confirmDatesRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, invalid("invalid json"))
			return
		}
		if err := checkBodyUser(body.UserID, uid); err != nil {
			writeError(w, err)
			return
		}

		in := ResolveInput{
			UserID:           uid,
			Idea:             body.Idea,
			DateConfirmation: body.DateConfirmation,
		}
		if p := strings.TrimSpace(body.PendingID); p != "" {
			id, err := uuid.Parse(p)
			if err != nil {
				writeError(w, invalid("malformed pendingId"))
				return
			}
			in.PendingID = id
		}

		res, err := svc.ResolveDates(r.Context(), in)
		if err != nil {
			log.Printf("[WARN] confirm dates failed user_id=%s: %v", uid, err)
			writeError(w, err)
			return
		}

		emitOutcome(r, sink, uid, res, 2)
		writeResult(w, res)
	}
}

func ListIdeasHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		list, err := store.ListIdeas(r.Context(), uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []Idea{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// checkBodyUser accepts an omitted userId; a present one must be the caller.
func checkBodyUser(raw string, uid uuid.UUID) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id != uid {
		return invalid("userId does not match the authenticated user")
	}
	return nil
}

func inputMethod(m string) string {
	if m == "text" || m == "voice" {
		return m
	}
	return "unknown"
}

func emitOutcome(r *http.Request, sink analytics.Sink, uid uuid.UUID, res Result, phase int) {
	if res.NeedsDateConfirmation {
		unresolved := 0
		for _, t := range res.PendingTasks {
			if t.Unresolved() {
				unresolved++
			}
		}
		analytics.Emit(r, sink, uid, "idea_dates_requested", map[string]any{
			"phase":            phase,
			"task_count":       len(res.PendingTasks),
			"unresolved_count": unresolved,
		})
		return
	}

	dated := 0
	for _, t := range res.Tasks {
		if t.DueDate != nil {
			dated++
		}
	}
	analytics.Emit(r, sink, uid, "idea_tasks_created", map[string]any{
		"idea_id":    res.Idea.ID,
		"phase":      phase,
		"task_count": len(res.Tasks),
		"dated":      dated,
	})
}

func writeResult(w http.ResponseWriter, res Result) {
	out := successResponse{
		Success:               true,
		AIResponse:            res.AIResponse,
		NeedsDateConfirmation: res.NeedsDateConfirmation,
	}
	if res.NeedsDateConfirmation {
		id := res.PendingID
		out.PendingID = &id
		out.PendingTasks = res.PendingTasks
	} else {
		out.Idea = res.Idea
		out.Tasks = res.Tasks
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func writeError(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	msg := err.Error()
	if kind != KindInvalidRequest {
		// upstream and store details stay in the server log
		msg = string(kind)
	}
	writeFailure(w, kind.HTTPStatus(), msg)
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(failureResponse{Success: false, Error: msg})
}
