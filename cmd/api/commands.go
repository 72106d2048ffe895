package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"idea-tasks-backend/internal/ai"
	"idea-tasks-backend/internal/analytics"
	"idea-tasks-backend/internal/config"
	"idea-tasks-backend/internal/db"
	"idea-tasks-backend/internal/ideas"
	"idea-tasks-backend/internal/store"
	"idea-tasks-backend/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			database, err := connect(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if migrate {
				if err := db.Migrate(ctx, database); err != nil {
					return err
				}
				log.Println("schema is up to date")
			}

			return serve(ctx, cfg, database)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, database *sql.DB) error {
	pg := store.New(database)

	llm := ai.New(cfg.OpenAIKey, cfg.OpenAIModel)
	llm.BaseURL = cfg.OpenAIBaseURL
	llm.Timeout = cfg.AITimeout.Duration
	llm.MaxTokens = cfg.AIMaxTokens
	llm.Temperature = cfg.AITemperature

	svc := ideas.NewService(llm, pg)
	svc.PendingTTL = cfg.PendingLifetime.Duration

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(cfg, database, pg, svc, analytics.New(database)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	purger := tasks.NewPurger(pg, cfg.PurgeInterval.Duration)
	go purger.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		log.Printf("API server is running on %s", cfg.HTTPAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			database, err := connect(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(cmd.Context(), database); err != nil {
				return err
			}
			log.Println("schema is up to date")
			return nil
		},
	}
}

func newCleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete completed tasks older than a day and expired pending decompositions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			database, err := connect(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			pg := store.New(database)
			n, err := tasks.NewPurger(pg, 0).PurgeOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("purge completed tasks: %w", err)
			}
			expired, err := pg.DeleteExpiredPending(cmd.Context(), time.Now())
			if err != nil {
				return fmt.Errorf("purge pending decompositions: %w", err)
			}
			log.Printf("cleanup done tasks=%d pending=%d", n, expired)
			return nil
		},
	}
}

func connect(cfg *config.Config) (*sql.DB, error) {
	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	log.Println("connected to PostgreSQL")
	return database, nil
}
