package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"idea-tasks-backend/internal/ideas"
	"idea-tasks-backend/internal/tasks"
)

// CreateIdeaWithTasks writes the idea and its tasks in one transaction. A
// failed task insert leaves no orphaned idea behind, and a pending token
// that is already consumed leaves nothing at all.
func (s *Postgres) CreateIdeaWithTasks(ctx context.Context, idea ideas.Idea, list []tasks.Task, consume uuid.UUID) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := consumePending(ctx, tx, idea.UserID, consume); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ideas (id, user_id, content, ai_response, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, idea.ID, idea.UserID, idea.Content, idea.AIResponse, idea.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert idea: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertTaskSQL)
	if err != nil {
		return fmt.Errorf("prepare task insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range list {
		if _, err := stmt.ExecContext(ctx, taskArgs(t)...); err != nil {
			if isCheckViolation(err) {
				return fmt.Errorf("insert task %d %q: invalid task: %w", i+1, t.Title, err)
			}
			return fmt.Errorf("insert task %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Postgres) ListIdeas(ctx context.Context, userID uuid.UUID) ([]ideas.Idea, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, user_id, content, ai_response, created_at
		FROM ideas
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ideas.Idea
	for rows.Next() {
		var i ideas.Idea
		if err := rows.Scan(&i.ID, &i.UserID, &i.Content, &i.AIResponse, &i.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// SavePending inserts p, swapping out the replaced token in the same
// transaction.
func (s *Postgres) SavePending(ctx context.Context, p ideas.PendingDecomposition, replaces uuid.UUID) error {
	draft, err := json.Marshal(p.Draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := consumePending(ctx, tx, p.UserID, replaces); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pending_decompositions (id, user_id, idea, ai_response, draft, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
	`, p.ID, p.UserID, p.Idea, p.AIResponse, string(draft), p.CreatedAt, p.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert pending: %w", err)
	}
	return tx.Commit()
}

// consumePending deletes the user's pending row. The row lock makes a
// concurrent consumer wait and then see zero rows.
func consumePending(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM pending_decompositions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("consume pending %s: %w", id, err)
	}
	return expectOne(res, ideas.ErrPendingNotFound)
}

func (s *Postgres) GetPending(ctx context.Context, userID, id uuid.UUID) (ideas.PendingDecomposition, error) {
	var (
		p     ideas.PendingDecomposition
		draft []byte
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, idea, ai_response, draft, created_at, expires_at
		FROM pending_decompositions
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&p.ID, &p.UserID, &p.Idea, &p.AIResponse, &draft, &p.CreatedAt, &p.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ideas.ErrPendingNotFound
	}
	if err != nil {
		return p, err
	}

	if err := json.Unmarshal(draft, &p.Draft); err != nil {
		return p, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return p, nil
}

// DeleteExpiredPending drops tokens nobody came back for.
func (s *Postgres) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM pending_decompositions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
