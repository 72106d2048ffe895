package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	ListTasks(ctx context.Context, userID uuid.UUID, status Status) ([]Task, error)
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (Task, error)
	UpdateTask(ctx context.Context, t Task) error
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
}

type PurgeStore interface {
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
