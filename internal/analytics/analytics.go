package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CtxKey string

const (
	ctxUserIDKey CtxKey = "analytics_user_id"
)

// Envelope is what we store with every event.
type Envelope struct {
	UserID       uuid.UUID
	SessionID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
	IPCountry    string
}

// Sink records product events. Implementations must not fail the caller's
// request: the returned error is for logging only.
type Sink interface {
	Log(ctx context.Context, env Envelope, eventName string, props any, sourceEventKey string) error
}

// FromRequest extracts event envelope fields from request.
// Backend-trustable fields only.
func FromRequest(r *http.Request) Envelope {
	platform := strings.TrimSpace(r.Header.Get("X-Platform"))
	if platform == "" {
		platform = "unknown"
	} else {
		platform = strings.ToLower(platform)
		if platform != "ios" && platform != "android" && platform != "web" {
			platform = "unknown"
		}
	}

	appVer := strings.TrimSpace(r.Header.Get("X-App-Version"))
	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	return Envelope{
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   appVer,
		DeviceLocale: locale,
	}
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	uid, ok := ctx.Value(ctxUserIDKey).(uuid.UUID)
	return uid, ok
}

// SourceEventKeyFromRequest returns the client-provided idempotency key, if any.
func SourceEventKeyFromRequest(r *http.Request) string {
	k := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

// Emit fills the envelope from the request and records one event. Failures
// are logged and never reach the caller.
func Emit(r *http.Request, sink Sink, userID uuid.UUID, eventName string, props any) {
	if sink == nil {
		return
	}
	env := FromRequest(r)
	env.UserID = userID
	if err := sink.Log(r.Context(), env, eventName, props, SourceEventKeyFromRequest(r)); err != nil {
		log.Printf("[WARN] analytics event=%s user_id=%s: %v", eventName, userID, err)
	}
}

type DBSink struct {
	DB *sql.DB
}

func New(db *sql.DB) *DBSink {
	return &DBSink{DB: db}
}

// Log inserts one analytics event.
// Never logs sensitive raw text; caller passes sanitized props.
func (s *DBSink) Log(ctx context.Context, env Envelope, eventName string, props any, sourceEventKey string) error {
	if eventName == "" {
		return nil
	}

	userID := env.UserID
	if userID == uuid.Nil {
		uid, ok := UserIDFromContext(ctx)
		if !ok {
			return nil
		}
		userID = uid
	}

	b, err := json.Marshal(props)
	if err != nil {
		return err
	}

	// one request may emit several events under the same client key
	var key sql.NullString
	if sourceEventKey != "" {
		key = sql.NullString{String: sourceEventKey + ":" + eventName, Valid: true}
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO analytics_events (
			event_name, event_time,
			user_id, session_id,
			platform, app_version, device_locale, ip_country,
			source_event_key,
			properties
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
		ON CONFLICT (source_event_key) DO NOTHING
	`, eventName, time.Now().UTC(),
		userID, nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale), nullIfEmpty(env.IPCountry),
		key,
		string(b),
	)
	return err
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

type Nop struct{}

func (Nop) Log(context.Context, Envelope, string, any, string) error { return nil }
