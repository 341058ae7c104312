// Package store persists the ledger in SQLite.
//
// Writes go through a single connection opened with immediate transactions,
// so writers are serialized by the database. Reads use a separate pool and
// see a consistent WAL snapshot for the life of their transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/cleared-dev/tally/internal/apperr"
)

// Store manages the writer and reader connections to one ledger file.
type Store struct {
	w    *sql.DB
	r    *sql.DB
	path string
}

// Open opens (creating if needed) the ledger database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	w, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path))
	if err != nil {
		return nil, apperr.Storage("opening database", err)
	}
	w.SetMaxOpenConns(1)

	if err := w.Ping(); err != nil {
		w.Close()
		return nil, apperr.Storage("pinging database", err)
	}
	if _, err := w.Exec(Schema); err != nil {
		w.Close()
		return nil, apperr.Storage("initializing schema", err)
	}

	r, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		w.Close()
		return nil, apperr.Storage("opening reader", err)
	}

	return &Store{w: w, r: r, path: path}, nil
}

// Close closes both connection pools.
func (s *Store) Close() error {
	return errors.Join(s.r.Close(), s.w.Close())
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Update runs fn inside a write transaction. If fn returns an error the
// transaction is rolled back and the error is returned unchanged; otherwise
// it is committed.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.w.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("beginning transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Tx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, apperr.Storage("rolling back", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Storage("committing transaction", err)
	}
	return nil
}

// View runs fn inside a read-only transaction; every query fn makes sees the
// same committed state.
func (s *Store) View(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.r.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return apperr.Storage("beginning read transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	return fn(&Tx{tx: tx})
}

// Tx is an open store transaction. Every method wraps driver failures as
// StorageUnavailable.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	return res, nil
}

func (t *Tx) query(ctx context.Context, op, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	return rows, nil
}
