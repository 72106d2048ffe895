package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"idea-tasks-backend/internal/tasks"
)

const taskColumns = `id, user_id, idea_id, title, description, status, priority, estimated_duration,
	due_date, needs_user_input, timeline_question, notification_sent, completed_at, created_at, updated_at`

const insertTaskSQL = `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

var allStatuses = []string{
	string(tasks.StatusPending),
	string(tasks.StatusInProgress),
	string(tasks.StatusCompleted),
}

func taskArgs(t tasks.Task) []any {
	return []any{
		t.ID, t.UserID, uuid.NullUUID{UUID: derefUUID(t.IdeaID), Valid: t.IdeaID != nil},
		t.Title, t.Description, string(t.Status), string(t.Priority), string(t.EstimatedDuration),
		nullTime(t.DueDate), t.NeedsUserInput, nullString(t.TimelineQuestion),
		t.NotificationSent, nullTime(t.CompletedAt), t.CreatedAt, t.UpdatedAt,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (tasks.Task, error) {
	var (
		t         tasks.Task
		ideaID    uuid.NullUUID
		due       sql.NullTime
		question  sql.NullString
		completed sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.UserID, &ideaID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.EstimatedDuration,
		&due, &t.NeedsUserInput, &question, &t.NotificationSent, &completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}
	if ideaID.Valid {
		t.IdeaID = &ideaID.UUID
	}
	if due.Valid {
		d := due.Time.UTC()
		t.DueDate = &d
	}
	if question.Valid {
		t.TimelineQuestion = &question.String
	}
	if completed.Valid {
		c := completed.Time
		t.CompletedAt = &c
	}
	return t, nil
}

// ListTasks returns the user's tasks, all statuses when status is empty.
func (s *Postgres) ListTasks(ctx context.Context, userID uuid.UUID, status tasks.Status) ([]tasks.Task, error) {
	statuses := allStatuses
	if status != "" {
		statuses = []string{string(status)}
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
	`, userID, pq.Array(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tasks.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Postgres) GetTask(ctx context.Context, userID, taskID uuid.UUID) (tasks.Task, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`, taskID, userID)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, tasks.ErrNotFound
	}
	return t, err
}

func (s *Postgres) UpdateTask(ctx context.Context, t tasks.Task) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, priority = $6, estimated_duration = $7,
		    due_date = $8, needs_user_input = $9, timeline_question = $10,
		    notification_sent = $11, completed_at = $12, updated_at = $13
		WHERE id = $1 AND user_id = $2
	`, t.ID, t.UserID, t.Title, t.Description, string(t.Status), string(t.Priority), string(t.EstimatedDuration),
		nullTime(t.DueDate), t.NeedsUserInput, nullString(t.TimelineQuestion),
		t.NotificationSent, nullTime(t.CompletedAt), t.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("update task %s: invalid task: %w", t.ID, err)
		}
		return err
	}
	return expectOne(res, tasks.ErrNotFound)
}

func (s *Postgres) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return err
	}
	return expectOne(res, tasks.ErrNotFound)
}

func (s *Postgres) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE status = 'completed' AND completed_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
