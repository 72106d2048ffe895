// Package store is the PostgreSQL side of the ideas, tasks and preferences
// stores.
package store

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type Postgres struct {
	DB *sql.DB
}

func New(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// isCheckViolation reports a row rejected by one of the schema CHECKs.
func isCheckViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23514"
}
