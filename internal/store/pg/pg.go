// Package pg implements the customer store on Postgres via database/sql
// with the pgx stdlib driver.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	// maxOpenConns bounds the pool; once exhausted, further store operations
	// queue on checkout rather than growing unbounded.
	maxOpenConns = 50
	maxIdleConns = 10

	connMaxIdleTime = 10 * time.Second
	connectTimeout  = 5 * time.Second
)

// Open creates a bounded Postgres connection pool and verifies connectivity.
// The caller owns the handle for the process lifetime.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
