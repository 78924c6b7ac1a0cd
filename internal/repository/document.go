// Package repository provides persistence implementations for documents and
// their verification log using a PostgreSQL database.
package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atinyakov/docverify/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// PostgresDocumentRepository implements document storage against a PostgreSQL database.
type PostgresDocumentRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresDocumentRepository creates a new PostgresDocumentRepository using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance.
func NewPostgresDocumentRepository(db *sql.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{DB: db}
}

// Create inserts doc and fills in its ID and timestamps.
// It returns models.ErrDuplicateCode if doc.PublicCode is already taken.
func (s *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) (int64, error) {
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO documents
			(public_code, internal_code, document_type, issuer, issue_date, expiry_date, status, metadata, pin_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		doc.PublicCode,
		doc.InternalCode,
		doc.DocumentType,
		doc.Issuer,
		doc.IssueDate,
		doc.ExpiryDate,
		nullableStatus(doc.Status),
		metadataParam(doc.Metadata),
		doc.PINHash,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, models.ErrDuplicateCode
		}
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return doc.ID, nil
}

// FetchByCode returns the document carrying publicCode, or models.ErrNotFound.
func (s *PostgresDocumentRepository) FetchByCode(ctx context.Context, publicCode string) (*models.Document, error) {
	var (
		doc      models.Document
		status   sql.NullString
		metadata []byte
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, public_code, internal_code, document_type, issuer, issue_date, expiry_date,
		       status, metadata, pin_hash, created_at, updated_at
		FROM documents
		WHERE public_code = $1
		LIMIT 1
	`, publicCode).Scan(
		&doc.ID,
		&doc.PublicCode,
		&doc.InternalCode,
		&doc.DocumentType,
		&doc.Issuer,
		&doc.IssueDate,
		&doc.ExpiryDate,
		&status,
		&metadata,
		&doc.PINHash,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	doc.Status = models.Status(status.String)
	if metadata != nil {
		doc.Metadata = json.RawMessage(metadata)
	}
	return &doc, nil
}

// ExistsByCode reports whether any document carries publicCode.
func (s *PostgresDocumentRepository) ExistsByCode(ctx context.Context, publicCode string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM documents WHERE public_code = $1)`,
		publicCode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check public code: %w", err)
	}
	return exists, nil
}

// RotateCode replaces the public code of document id in a single statement.
// The previous code stops resolving as soon as the update commits.
func (s *PostgresDocumentRepository) RotateCode(ctx context.Context, id int64, newCode string) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE documents SET public_code = $1, updated_at = now() WHERE id = $2
	`, newCode, id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateCode
		}
		return fmt.Errorf("rotate public code: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rotate public code: %w", err)
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AppendVerification adds rec to the verification log.
func (s *PostgresDocumentRepository) AppendVerification(ctx context.Context, rec models.VerificationRecord) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO verifications
			(id, document_id, public_code_used, status, ip_address, user_agent,
			 client_browser, client_os, client_mobile, client_bot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		rec.ID,
		rec.DocumentID,
		rec.PublicCodeUsed,
		string(rec.Status),
		nullString(rec.Client.Address),
		nullString(rec.Client.UserAgent),
		nullString(rec.Client.Browser),
		nullString(rec.Client.OS),
		rec.Client.Mobile,
		rec.Client.Bot,
	)
	if err != nil {
		return fmt.Errorf("append verification: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *PostgresDocumentRepository) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableStatus(s models.Status) sql.NullString {
	return nullString(string(s))
}

// metadataParam returns the JSONB parameter for raw. lib/pq sends []byte as
// bytea, so the document goes over the wire as text.
func metadataParam(raw json.RawMessage) sql.NullString {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return sql.NullString{}
	}
	return sql.NullString{String: string(trimmed), Valid: true}
}
