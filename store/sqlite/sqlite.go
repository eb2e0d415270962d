/*
Package sqlite provides a SQLite-backed implementation of the voucher
store.

PURPOSE:
  An alternative to the JSON file backend for deployments that prefer a
  single database file. The snapshot contract is preserved: every Save
  replaces the whole collection inside one transaction, so a concurrent
  Load observes either the previous snapshot or the new one.

KEY TABLES:
  active_vouchers:    active partition; position column preserves
                      insertion order
  redeemed_vouchers:  redeemed partition; position preserves redemption
                      order
  redemption_counts:  recipient -> lifetime count

WAL MODE:
  The database is opened with WAL so the reporting projection can read
  while a mutation persists.

SEE ALSO:
  - voucher/store.go: interface definition and snapshot semantics
  - store/file:       the default JSON backend
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/voucher-engine/voucher"
)

// Store implements voucher.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS active_vouchers (
		id          TEXT PRIMARY KEY,
		position    INTEGER NOT NULL,
		recipient   TEXT NOT NULL,
		expiry_date TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_active_recipient
		ON active_vouchers(recipient);

	CREATE TABLE IF NOT EXISTS redeemed_vouchers (
		id          TEXT PRIMARY KEY,
		position    INTEGER NOT NULL,
		recipient   TEXT NOT NULL,
		expiry_date TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		redeemed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_redeemed_recipient
		ON redeemed_vouchers(recipient);

	CREATE TABLE IF NOT EXISTS redemption_counts (
		recipient TEXT PRIMARY KEY,
		count     INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOAD
// =============================================================================

func (s *Store) LoadActive(ctx context.Context) ([]voucher.Voucher, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient, expiry_date, created_at
		FROM active_vouchers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query active: %w", err)
	}
	defer rows.Close()

	var out []voucher.Voucher
	for rows.Next() {
		var v voucher.Voucher
		var expiry, created string
		if err := rows.Scan(&v.ID, &v.Recipient, &expiry, &created); err != nil {
			return nil, fmt.Errorf("scan active: %w", err)
		}
		if v.ExpiryDate, err = voucher.ParseDate(expiry); err != nil {
			return nil, err
		}
		if v.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) LoadRedeemed(ctx context.Context) ([]voucher.Voucher, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient, expiry_date, created_at, redeemed_at
		FROM redeemed_vouchers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query redeemed: %w", err)
	}
	defer rows.Close()

	var out []voucher.Voucher
	for rows.Next() {
		var v voucher.Voucher
		var expiry, created, redeemed string
		if err := rows.Scan(&v.ID, &v.Recipient, &expiry, &created, &redeemed); err != nil {
			return nil, fmt.Errorf("scan redeemed: %w", err)
		}
		if v.ExpiryDate, err = voucher.ParseDate(expiry); err != nil {
			return nil, err
		}
		if v.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if v.RedeemedAt, err = parseTime(redeemed); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) LoadCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT recipient, count FROM redemption_counts`)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var recipient string
		var count int
		if err := rows.Scan(&recipient, &count); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		out[recipient] = count
	}
	return out, rows.Err()
}

// =============================================================================
// SAVE - Full snapshot replace, one transaction each
// =============================================================================

func (s *Store) SaveActive(ctx context.Context, active []voucher.Voucher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(ctx, `DELETE FROM active_vouchers`, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO active_vouchers (id, position, recipient, expiry_date, created_at)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, v := range active {
			if _, err := stmt.ExecContext(ctx,
				v.ID, i, v.Recipient, v.ExpiryDate.String(), formatTime(v.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) SaveRedeemed(ctx context.Context, redeemed []voucher.Voucher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(ctx, `DELETE FROM redeemed_vouchers`, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO redeemed_vouchers (id, position, recipient, expiry_date, created_at, redeemed_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, v := range redeemed {
			if _, err := stmt.ExecContext(ctx,
				v.ID, i, v.Recipient, v.ExpiryDate.String(),
				formatTime(v.CreatedAt), formatTime(v.RedeemedAt)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) SaveCounts(ctx context.Context, counts map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(ctx, `DELETE FROM redemption_counts`, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO redemption_counts (recipient, count) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for recipient, count := range counts {
			if _, err := stmt.ExecContext(ctx, recipient, count); err != nil {
				return err
			}
		}
		return nil
	})
}

// replace clears a table and refills it inside one transaction.
func (s *Store) replace(ctx context.Context, clear string, fill func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, clear); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	if err := fill(tx); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

var _ voucher.Store = (*Store)(nil)
