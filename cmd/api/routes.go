package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/rs/cors"

	"idea-tasks-backend/internal/analytics"
	"idea-tasks-backend/internal/auth"
	"idea-tasks-backend/internal/config"
	"idea-tasks-backend/internal/ideas"
	"idea-tasks-backend/internal/preferences"
	"idea-tasks-backend/internal/store"
	"idea-tasks-backend/internal/tasks"
)

func newRouter(cfg *config.Config, database *sql.DB, pg *store.Postgres, svc *ideas.Service, sink analytics.Sink) http.Handler {
	secret := []byte(cfg.JWTSecret)
	private := auth.New(secret).Wrap

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	// ----- AUTH -----
	mux.HandleFunc("/auth/register", methods{http.MethodPost: auth.RegisterHandler(database, secret)}.serve)
	mux.HandleFunc("/auth/login", methods{http.MethodPost: auth.LoginHandler(database, secret)}.serve)
	mux.HandleFunc("/auth/me", methods{http.MethodGet: private(auth.MeHandler(database))}.serve)
	mux.HandleFunc("/auth/logout", methods{http.MethodPost: private(auth.LogoutHandler())}.serve)
	mux.HandleFunc("/auth/delete-account", methods{http.MethodPost: private(auth.DeleteAccountHandler(database))}.serve)

	// ----- IDEAS -----
	mux.HandleFunc("/ideas", methods{http.MethodGet: private(ideas.ListIdeasHandler(pg))}.serve)
	mux.HandleFunc("/ideas/decompose", methods{http.MethodPost: private(ideas.DecomposeHandler(svc, sink))}.serve)
	mux.HandleFunc("/ideas/confirm-dates", methods{http.MethodPost: private(ideas.ConfirmDatesHandler(svc, sink))}.serve)

	// ----- TASKS -----
	mux.HandleFunc("/tasks", methods{http.MethodGet: private(tasks.GetTasksHandler(pg))}.serve)
	mux.HandleFunc("/tasks/status", methods{http.MethodPost: private(tasks.SetTaskStatusHandler(pg, sink, time.Now))}.serve)
	mux.HandleFunc("/tasks/update", methods{http.MethodPost: private(tasks.UpdateTaskHandler(pg, time.Now))}.serve)
	mux.HandleFunc("/tasks/delete", methods{http.MethodPost: private(tasks.DeleteTaskHandler(pg, sink))}.serve)

	// ----- PREFERENCES -----
	mux.HandleFunc("/preferences", methods{
		http.MethodGet: private(preferences.GetPreferencesHandler(pg)),
		http.MethodPut: private(preferences.PutPreferencesHandler(pg, time.Now)),
	}.serve)

	// ----- ANALYTICS -----
	mux.HandleFunc("/analytics/events", methods{http.MethodPost: private(analytics.ClientEventHandler(sink))}.serve)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type", "Authorization", "X-Platform", "X-App-Version", "X-Device-Locale", "X-Session-Id", "Idempotency-Key", "X-Source-Event-Key",
		},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}

// methods dispatches on r.Method and answers preflight requests.
type methods map[string]http.HandlerFunc

func (m methods) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	h, ok := m[r.Method]
	if !ok {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h(w, r)
}
