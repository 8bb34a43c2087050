// Package postgres provides a PostgreSQL-backed credential.Store.
//
// Embeddings are stored in a pgvector column so that the voiceprint survives
// round-trips without float re-encoding drift, and the username carries a
// UNIQUE constraint so that the at-most-one-credential-per-identity guarantee
// is enforced by the database rather than by application logic.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/scveran/voxauth/internal/credential"
)

// Compile-time interface check.
var _ credential.Store = (*Store)(nil)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

const ddlCredentials = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS voice_credentials (
    username      TEXT         PRIMARY KEY,
    passphrase    TEXT         NOT NULL,
    embedding     vector(%d)   NOT NULL,
    full_name     TEXT         NOT NULL DEFAULT '',
    email         TEXT         NOT NULL DEFAULT '',
    date_of_birth DATE,
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// Store is a PostgreSQL-backed credential store. All operations are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore establishes a connection pool to the database at dsn, registers
// pgvector types on every connection, and ensures the credentials table
// exists.
//
// embeddingDimensions must match the output dimension of the voiceprint
// model. Changing it after the first migration requires a manual schema
// change.
func NewStore(ctx context.Context, dsn string, embeddingDimensions int) (*Store, error) {
	if embeddingDimensions <= 0 {
		return nil, fmt.Errorf("postgres store: embedding dimensions must be positive, got %d", embeddingDimensions)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	// Register pgvector types on every new connection so the embedding
	// column can be scanned into and inserted from pgvector.Vector values.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf(ddlCredentials, embeddingDimensions)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Check probes the database connection. Suitable as a readiness checker.
func (s *Store) Check(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// FindByIdentity implements credential.Store.
func (s *Store) FindByIdentity(ctx context.Context, identity string) (*credential.VoiceCredential, error) {
	const q = `
		SELECT username, passphrase, embedding, full_name, email,
		       date_of_birth, created_at
		FROM   voice_credentials
		WHERE  username = $1`

	var (
		cred credential.VoiceCredential
		vec  pgvector.Vector
		dob  *time.Time
	)
	err := s.pool.QueryRow(ctx, q, identity).Scan(
		&cred.Identity,
		&cred.Passphrase,
		&vec,
		&cred.FullName,
		&cred.Email,
		&dob,
		&cred.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", credential.ErrNotFound, identity)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: find %q: %w", identity, err)
	}

	if dob != nil {
		cred.DateOfBirth = *dob
	}
	cred.Embedding = vec.Slice()
	return &cred, nil
}

// Create implements credential.Store. The INSERT relies on the primary-key
// constraint for atomicity: of concurrent creates for one identity, the
// database lets exactly one through.
func (s *Store) Create(ctx context.Context, cred *credential.VoiceCredential) error {
	const q = `
		INSERT INTO voice_credentials
		    (username, passphrase, embedding, full_name, email, date_of_birth, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	// Unset date of birth stores as NULL rather than the zero time.
	var dob *time.Time
	if !cred.DateOfBirth.IsZero() {
		dob = &cred.DateOfBirth
	}

	_, err := s.pool.Exec(ctx, q,
		cred.Identity,
		cred.Passphrase,
		pgvector.NewVector(cred.Embedding),
		cred.FullName,
		cred.Email,
		dob,
		cred.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %q", credential.ErrDuplicateIdentity, cred.Identity)
		}
		return fmt.Errorf("postgres store: create %q: %w", cred.Identity, err)
	}
	return nil
}
