package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	}
	return false
}

// ErrNotFound is returned by stores when the user has never saved anything.
var ErrNotFound = errors.New("preferences not found")

type Preferences struct {
	UserID               uuid.UUID `json:"user_id"`
	Theme                Theme     `json:"theme"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	DailyDigest          bool      `json:"daily_digest"`
	Timezone             string    `json:"timezone"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Defaults is what a user sees before the first save.
func Defaults(userID uuid.UUID) Preferences {
	return Preferences{
		UserID:               userID,
		Theme:                ThemeSystem,
		NotificationsEnabled: true,
		Timezone:             "UTC",
	}
}

func (p Preferences) Validate() error {
	if !p.Theme.Valid() {
		return fmt.Errorf("invalid theme %q", p.Theme)
	}
	if p.Timezone == "" {
		return errors.New("timezone required")
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q", p.Timezone)
	}
	return nil
}

type Store interface {
	// GetPreferences returns ErrNotFound when no row exists yet.
	GetPreferences(ctx context.Context, userID uuid.UUID) (Preferences, error)
	UpsertPreferences(ctx context.Context, p Preferences) error
}

// Load returns the stored preferences or the defaults.
func Load(ctx context.Context, store Store, userID uuid.UUID) (Preferences, error) {
	p, err := store.GetPreferences(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Defaults(userID), nil
	}
	return p, err
}
