// Package sqlite stores contract state in a SQLite database (pure Go driver).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/covenant/pkg/domain"

	_ "modernc.org/sqlite"
)

// Store implements ports.StateStore on one SQLite table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates it.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite has one writer; in-memory databases exist per connection.
	db.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and migrates it.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS contract_state (
		account    TEXT PRIMARY KEY,
		contract   TEXT NOT NULL DEFAULT '',
		codec      TEXT NOT NULL,
		data       BLOB,
		version    INTEGER NOT NULL,
		encrypted  INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save upserts the record of account.
func (s *Store) Save(ctx context.Context, account string, rec *domain.StateRecord) error {
	query := `
	INSERT INTO contract_state (account, contract, codec, data, version, encrypted, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(account) DO UPDATE SET
		contract = excluded.contract,
		codec = excluded.codec,
		data = excluded.data,
		version = excluded.version,
		encrypted = excluded.encrypted,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		account, rec.Contract, rec.Codec.String(), rec.Data, int64(rec.Version), rec.Encrypted,
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Load reads the record of account.
func (s *Store) Load(ctx context.Context, account string) (*domain.StateRecord, error) {
	query := `
	SELECT contract, codec, data, version, encrypted, updated_at
	FROM contract_state
	WHERE account = ?`

	var (
		rec       = domain.StateRecord{Account: account}
		codec     string
		version   int64
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, query, account).Scan(&rec.Contract, &codec, &rec.Data, &version, &rec.Encrypted, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	if rec.Codec, err = domain.ParseSerialization(codec); err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to load state: bad timestamp: %w", err)
	}
	rec.Version = uint64(version)
	return &rec, nil
}

// Delete removes the record of account.
func (s *Store) Delete(ctx context.Context, account string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM contract_state WHERE account = ?`, account); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// List returns every account with a stored record, in order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT account FROM contract_state ORDER BY account`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := []string{}
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
