package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"go-ekyc-gateway/pipeline"

	_ "github.com/lib/pq"
)

// PostgresSubmissionStore persists records in the submissions table.
type PostgresSubmissionStore struct {
	db *sql.DB
}

const createTableStmt = `
CREATE TABLE IF NOT EXISTS submissions (
	id              TEXT PRIMARY KEY,
	document_type   TEXT NOT NULL,
	family_name     TEXT NOT NULL,
	given_name      TEXT NOT NULL,
	identity_number TEXT NOT NULL,
	card_number     TEXT NOT NULL,
	birth_date      TEXT NOT NULL,
	expiry_date     TEXT NOT NULL DEFAULT '',
	front_face      BYTEA NOT NULL,
	selfie_face     BYTEA NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
)`

// NewPostgresSubmissionStore opens the database, verifies connectivity and
// ensures the submissions table exists.
func NewPostgresSubmissionStore(dsn string) (*PostgresSubmissionStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, createTableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure submissions table: %w", err)
	}

	slog.Info("Postgres submission store ready")
	return &PostgresSubmissionStore{db: db}, nil
}

func (s *PostgresSubmissionStore) SaveSubmission(ctx context.Context, record *pipeline.Record) error {
	stored := fromRecord(record, time.Now())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions
		   (id, document_type, family_name, given_name, identity_number,
		    card_number, birth_date, expiry_date, front_face, selfie_face, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		stored.ID, stored.DocumentType, stored.FamilyName, stored.GivenName,
		stored.IdentityNumber, stored.CardNumber, stored.BirthDate,
		stored.ExpiryDate, stored.FrontFace, stored.SelfieFace, stored.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission %s: %w", record.ID, err)
	}

	slog.Debug("Submission stored", "submission_id", record.ID)
	return nil
}

func (s *PostgresSubmissionStore) GetSubmission(ctx context.Context, id string) (*StoredSubmission, error) {
	var stored StoredSubmission
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document_type, family_name, given_name, identity_number,
		        card_number, birth_date, expiry_date, front_face, selfie_face, created_at
		 FROM submissions WHERE id = $1`, id,
	).Scan(
		&stored.ID, &stored.DocumentType, &stored.FamilyName, &stored.GivenName,
		&stored.IdentityNumber, &stored.CardNumber, &stored.BirthDate,
		&stored.ExpiryDate, &stored.FrontFace, &stored.SelfieFace, &stored.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find submission %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read submission %s: %w", id, err)
	}
	return &stored, nil
}

// Close releases the underlying connection pool.
func (s *PostgresSubmissionStore) Close() error {
	return s.db.Close()
}
