package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"idea-tasks-backend/internal/preferences"
)

func (s *Postgres) GetPreferences(ctx context.Context, userID uuid.UUID) (preferences.Preferences, error) {
	p := preferences.Preferences{UserID: userID}
	err := s.DB.QueryRowContext(ctx, `
		SELECT theme, notifications_enabled, daily_digest, timezone, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`, userID).Scan(&p.Theme, &p.NotificationsEnabled, &p.DailyDigest, &p.Timezone, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, preferences.ErrNotFound
	}
	return p, err
}

func (s *Postgres) UpsertPreferences(ctx context.Context, p preferences.Preferences) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, theme, notifications_enabled, daily_digest, timezone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET theme = EXCLUDED.theme,
		    notifications_enabled = EXCLUDED.notifications_enabled,
		    daily_digest = EXCLUDED.daily_digest,
		    timezone = EXCLUDED.timezone,
		    updated_at = EXCLUDED.updated_at
	`, p.UserID, string(p.Theme), p.NotificationsEnabled, p.DailyDigest, p.Timezone, p.UpdatedAt)
	return err
}
