package planstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/planwire/internal/canonical"
	"github.com/roach88/planwire/internal/plan"
	"github.com/roach88/planwire/internal/validate"
	"github.com/roach88/planwire/internal/wire"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// ErrNotFound is returned by Get when no plan carries the fingerprint.
var ErrNotFound = errors.New("plan not found")

// Store provides durable storage for encoded plans.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and applies
// pragmas and the schema. Idempotent; safe to call on an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY under concurrent Put calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put validates, encodes, and stores a plan, returning its fingerprint.
// Storing a plan that already exists is a no-op on the same fingerprint.
func (s *Store) Put(ctx context.Context, rel *plan.Relation) (string, error) {
	if err := validate.Validate(rel); err != nil {
		return "", fmt.Errorf("put plan: %w", err)
	}
	encoded, err := wire.Encode(rel)
	if err != nil {
		return "", fmt.Errorf("put plan: %w", err)
	}
	fingerprint, err := canonical.Fingerprint(rel)
	if err != nil {
		return "", fmt.Errorf("put plan: %w", err)
	}

	var sourceInfo string
	if rel.Common != nil {
		sourceInfo = rel.Common.SourceInfo
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (fingerprint, encoded, source_info, created_seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(created_seq), 0) + 1 FROM plans))
		ON CONFLICT(fingerprint) DO NOTHING
	`, fingerprint, encoded, sourceInfo)
	if err != nil {
		return "", fmt.Errorf("put plan: %w", err)
	}
	return fingerprint, nil
}

// Get loads, decodes, and re-validates the plan with the given fingerprint.
// Returns ErrNotFound when no such plan exists.
func (s *Store) Get(ctx context.Context, fingerprint string) (*plan.Relation, error) {
	var encoded []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT encoded FROM plans WHERE fingerprint = ?
	`, fingerprint).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", fingerprint, err)
	}

	rel, err := wire.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", fingerprint, err)
	}
	if err := validate.Validate(rel); err != nil {
		return nil, fmt.Errorf("get plan %s: %w", fingerprint, err)
	}
	return rel, nil
}

// Entry describes one stored plan without decoding it.
type Entry struct {
	Fingerprint string
	SourceInfo  string
	CreatedSeq  int64
}

// List returns stored plans in insertion order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, source_info, created_seq
		FROM plans ORDER BY created_seq
	`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Fingerprint, &e.SourceInfo, &e.CreatedSeq); err != nil {
			return nil, fmt.Errorf("list plans: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return entries, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
