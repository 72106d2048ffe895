package ideas

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"idea-tasks-backend/internal/ai"
	"idea-tasks-backend/internal/tasks"
)

const DefaultPendingTTL = 24 * time.Hour

// Service runs the two-phase idea decomposition:
//
//	Decompose -> all tasks dated?       yes -> persist
//	                                    no  -> pending (awaiting date input)
//	ResolveDates(pending, answer) -> all resolved? yes -> persist
//	                                               no  -> pending again
//
// Failures never loop back on their own; the caller retries from Decompose.
type Service struct {
	LLM        ai.Generator
	Store      Store
	Now        func() time.Time
	NewID      func() uuid.UUID
	PendingTTL time.Duration
}

func NewService(llm ai.Generator, store Store) *Service {
	return &Service{
		LLM:        llm,
		Store:      store,
		Now:        time.Now,
		NewID:      uuid.New,
		PendingTTL: DefaultPendingTTL,
	}
}

type DecomposeInput struct {
	UserID uuid.UUID
	Idea   string
}

type ResolveInput struct {
	UserID uuid.UUID
	// PendingID selects a stored phase-one plan. When it is zero, Idea must
	// carry the original text instead.
	PendingID        uuid.UUID
	Idea             string
	DateConfirmation string
}

// Result is either finalized (Idea and Tasks set) or pending
// (NeedsDateConfirmation, PendingID and PendingTasks set).
type Result struct {
	AIResponse            ai.Response
	NeedsDateConfirmation bool

	Idea  *Idea
	Tasks []tasks.Task

	PendingID    uuid.UUID
	PendingTasks []ai.TaskDraft
}

// Decompose is phase one: ask the model for a plan and persist it unless
// some task needs a date from the user.
func (s *Service) Decompose(ctx context.Context, in DecomposeInput) (Result, error) {
	idea := strings.TrimSpace(in.Idea)
	if idea == "" {
		return Result{}, invalid("idea is required")
	}
	if in.UserID == uuid.Nil {
		return Result{}, invalid("userId is required")
	}

	now := s.Now()
	raw, resp, err := s.ask(ctx, ai.DecomposePrompt(now), ai.BuildDecomposeUserPrompt(idea))
	if err != nil {
		return Result{}, err
	}

	if resp.NeedsUserInput() {
		return s.park(ctx, in.UserID, idea, raw, resp, now, uuid.Nil)
	}
	return s.persist(ctx, in.UserID, idea, raw, resp, now, uuid.Nil)
}

// ResolveDates is phase two: interpret the user's timing answer and persist
// the idea with its dated tasks.
func (s *Service) ResolveDates(ctx context.Context, in ResolveInput) (Result, error) {
	answer := strings.TrimSpace(in.DateConfirmation)
	if answer == "" {
		return Result{}, invalid("dateConfirmation is required")
	}
	if in.UserID == uuid.Nil {
		return Result{}, invalid("userId is required")
	}

	now := s.Now()

	var (
		idea   string
		drafts []ai.TaskDraft
	)
	if in.PendingID != uuid.Nil {
		p, err := s.Store.GetPending(ctx, in.UserID, in.PendingID)
		if errors.Is(err, ErrPendingNotFound) {
			return Result{}, invalid("unknown pendingId")
		}
		if err != nil {
			return Result{}, wrap(KindPersistenceError, "load pending decomposition", err)
		}
		if !now.Before(p.ExpiresAt) {
			return Result{}, invalid("pendingId expired")
		}
		idea = p.Idea
		drafts = p.Draft.Tasks
	} else {
		idea = strings.TrimSpace(in.Idea)
		if idea == "" {
			return Result{}, invalid("idea or pendingId is required")
		}
	}

	raw, resp, err := s.ask(ctx, ai.DateResolutionPrompt(now), ai.BuildDateUserPrompt(idea, answer, drafts))
	if err != nil {
		return Result{}, err
	}

	// the model is told to clear every question; do not take its word for it
	if unresolved(resp) {
		return s.park(ctx, in.UserID, idea, raw, resp, now, in.PendingID)
	}
	return s.persist(ctx, in.UserID, idea, raw, resp, now, in.PendingID)
}

func (s *Service) ask(ctx context.Context, systemPrompt, userPrompt string) (string, ai.Response, error) {
	raw, err := s.LLM.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", ai.Response{}, wrap(KindUpstreamUnavailable, "generate", err)
	}

	resp, err := ai.ParseResponse(raw)
	if err != nil {
		return "", ai.Response{}, wrap(KindDecodeError, "parse model output", err)
	}
	return raw, resp, nil
}

// park stores a plan awaiting dates, consuming the previous token if any.
func (s *Service) park(ctx context.Context, userID uuid.UUID, idea, raw string, resp ai.Response, now time.Time, replaces uuid.UUID) (Result, error) {
	ttl := s.PendingTTL
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}

	p := PendingDecomposition{
		ID:         s.NewID(),
		UserID:     userID,
		Idea:       idea,
		AIResponse: raw,
		Draft:      resp,
		CreatedAt:  now.UTC(),
		ExpiresAt:  now.Add(ttl).UTC(),
	}
	if err := s.Store.SavePending(ctx, p, replaces); err != nil {
		return Result{}, storeError("save pending decomposition", err)
	}

	return Result{
		AIResponse:            resp,
		NeedsDateConfirmation: true,
		PendingID:             p.ID,
		PendingTasks:          resp.Tasks,
	}, nil
}

// persist writes the idea and its tasks, consuming the pending token if any.
func (s *Service) persist(ctx context.Context, userID uuid.UUID, content, raw string, resp ai.Response, now time.Time, consume uuid.UUID) (Result, error) {
	now = now.UTC()
	idea := Idea{
		ID:         s.NewID(),
		UserID:     userID,
		Content:    content,
		AIResponse: raw,
		CreatedAt:  now,
	}

	list := make([]tasks.Task, 0, len(resp.Tasks))
	for _, d := range resp.Tasks {
		list = append(list, taskFromDraft(s.NewID(), userID, idea.ID, d, now))
	}

	if err := s.Store.CreateIdeaWithTasks(ctx, idea, list, consume); err != nil {
		return Result{}, storeError("insert idea and tasks", err)
	}

	return Result{
		AIResponse: resp,
		Idea:       &idea,
		Tasks:      list,
	}, nil
}

// storeError maps a lost race for a pending token to InvalidRequest.
func storeError(msg string, err error) error {
	if errors.Is(err, ErrPendingNotFound) {
		return invalid("pendingId already used")
	}
	return wrap(KindPersistenceError, msg, err)
}

func taskFromDraft(id, userID, ideaID uuid.UUID, d ai.TaskDraft, now time.Time) tasks.Task {
	t := tasks.Task{
		ID:                id,
		UserID:            userID,
		IdeaID:            &ideaID,
		Title:             d.Title,
		Description:       d.Description,
		Status:            tasks.StatusPending,
		Priority:          d.Priority,
		EstimatedDuration: d.EstimatedDuration,
		NeedsUserInput:    d.NeedsUserInput,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if d.NeedsUserInput {
		t.TimelineQuestion = d.TimelineQuestion
	}
	tasks.ResolveDueDate(&t, d.DueDate())
	return t
}

func unresolved(resp ai.Response) bool {
	for _, t := range resp.Tasks {
		if t.Unresolved() {
			return true
		}
	}
	return false
}
