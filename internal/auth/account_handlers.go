package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
)

func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// JWT stateless => сервер ничего не "разлогинивает".
		// Фронт просто удаляет токен.
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}

// accountTables lists what belongs to a user, children before the users row.
var accountTables = []struct {
	name  string
	query string
}{
	{"pending_decompositions", `DELETE FROM pending_decompositions WHERE user_id = $1`},
	{"tasks", `DELETE FROM tasks WHERE user_id = $1`},
	{"ideas", `DELETE FROM ideas WHERE user_id = $1`},
	{"user_preferences", `DELETE FROM user_preferences WHERE user_id = $1`},
	{"analytics_events", `DELETE FROM analytics_events WHERE user_id = $1`},
	{"users", `DELETE FROM users WHERE id = $1`},
}

func DeleteAccountHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tx, err := dbx.BeginTx(r.Context(), nil)
		if err != nil {
			http.Error(w, "db begin failed", http.StatusInternalServerError)
			return
		}
		defer func() { _ = tx.Rollback() }()

		for _, t := range accountTables {
			if _, err := tx.ExecContext(r.Context(), t.query, uid); err != nil {
				http.Error(w, "delete "+t.name+" failed", http.StatusInternalServerError)
				return
			}
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "db commit failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}
