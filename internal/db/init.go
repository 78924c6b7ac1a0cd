// Package db opens the PostgreSQL connection pool and creates the schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id BIGSERIAL PRIMARY KEY,
    public_code VARCHAR(64) NOT NULL UNIQUE,
    internal_code TEXT NOT NULL,
    document_type TEXT,
    issuer TEXT,
    issue_date TEXT,
    expiry_date TEXT,
    status VARCHAR(20) DEFAULT 'valid'
        CHECK (status IN ('valid', 'warning', 'invalid', 'revoked')),
    metadata JSONB,
    pin_hash TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_internal_code ON documents (internal_code);

CREATE TABLE IF NOT EXISTS verifications (
    id UUID PRIMARY KEY,
    document_id BIGINT NOT NULL REFERENCES documents(id),
    public_code_used VARCHAR(64) NOT NULL,
    status VARCHAR(20) NOT NULL,
    ip_address TEXT,
    user_agent TEXT,
    client_browser TEXT,
    client_os TEXT,
    client_mobile BOOLEAN NOT NULL DEFAULT FALSE,
    client_bot BOOLEAN NOT NULL DEFAULT FALSE,
    verified_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_verifications_document ON verifications (document_id);
CREATE INDEX IF NOT EXISTS idx_verifications_date ON verifications (verified_at);
`

// Pool limits for the shared connection pool.
const (
	maxOpenConns    = 30
	maxIdleConns    = 10
	connMaxLifetime = time.Hour
)

// InitPostgres opens a connection pool for dsn, checks it and makes sure the
// schema exists. The returned pool is meant to live for the whole process.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies the idempotent schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
