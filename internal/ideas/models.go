package ideas

import (
	"context"
	"time"

	"github.com/google/uuid"

	"idea-tasks-backend/internal/ai"
	"idea-tasks-backend/internal/tasks"
)

// Idea is the raw captured text. It is written once, when its tasks are
// finalized, and never updated.
type Idea struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Content    string    `json:"content"`
	AIResponse string    `json:"ai_response"`
	CreatedAt  time.Time `json:"created_at"`
}

// PendingDecomposition holds a phase-one plan that still needs dates from
// the user. It is addressed by an opaque ID handed to the client.
type PendingDecomposition struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Idea       string
	AIResponse string
	Draft      ai.Response
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Store persists ideas and pending decompositions. A non-zero consume or
// replaces ID names a pending decomposition of the same user that is deleted
// in the same transaction as the write; if it is already gone the write is
// rolled back and ErrPendingNotFound returned, so a token finalizes at most
// once.
type Store interface {
	// CreateIdeaWithTasks writes the idea and all its tasks atomically.
	CreateIdeaWithTasks(ctx context.Context, idea Idea, list []tasks.Task, consume uuid.UUID) error
	ListIdeas(ctx context.Context, userID uuid.UUID) ([]Idea, error)

	SavePending(ctx context.Context, p PendingDecomposition, replaces uuid.UUID) error
	// GetPending returns ErrPendingNotFound for unknown IDs and for IDs owned
	// by another user.
	GetPending(ctx context.Context, userID, id uuid.UUID) (PendingDecomposition, error)
}
