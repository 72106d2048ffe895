package preferences

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"idea-tasks-backend/internal/auth"
)

func GetPreferencesHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := Load(r.Context(), store, uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	}
}

// PutPreferencesHandler merges the supplied fields over the current record.
func PutPreferencesHandler(store Store, now func() time.Time) http.HandlerFunc {
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
			Theme                *Theme  `json:"theme"`
			NotificationsEnabled *bool   `json:"notifications_enabled"`
			DailyDigest          *bool   `json:"daily_digest"`
			Timezone             *string `json:"timezone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := Load(r.Context(), store, uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if body.Theme != nil {
			p.Theme = Theme(strings.ToLower(strings.TrimSpace(string(*body.Theme))))
		}
		if body.NotificationsEnabled != nil {
			p.NotificationsEnabled = *body.NotificationsEnabled
		}
		if body.DailyDigest != nil {
			p.DailyDigest = *body.DailyDigest
		}
		if body.Timezone != nil {
			p.Timezone = strings.TrimSpace(*body.Timezone)
		}

		if err := p.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.UpdatedAt = now().UTC()

		if err := store.UpsertPreferences(r.Context(), p); err != nil {
			log.Printf("[WARN] save preferences user_id=%s: %v", uid, err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	}
}
