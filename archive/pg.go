package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS archived_content (
	id         TEXT PRIMARY KEY,
	task       TEXT NOT NULL,
	query      TEXT NOT NULL,
	content    JSONB NOT NULL,
	grounded   BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// Postgres stores records in an archived_content table, content as JSONB.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens dsn, verifies connectivity and ensures the table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("archive: postgres dsn cannot be empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: ensure schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Configured() bool { return p != nil && p.db != nil }

func (p *Postgres) Save(ctx context.Context, rec *Record) error {
	stamp(rec)
	payload, err := json.Marshal(rec.Content)
	if err != nil {
		return fmt.Errorf("archive: marshal content: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO archived_content (id, task, query, content, grounded, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Task, rec.Query, payload, rec.Grounded, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("archive: insert record: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }
