// Package sqlite provides a durable account store and transaction
// journal backed by SQLite. The store implements domain.AccountStore, so
// the simulation code is indifferent to whether balances live here or in
// the in-memory store.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/pocketwise/pocketwise/internal/domain"
)

// Store is a SQLite-backed account store and journal.
type Store struct {
	db *sql.DB

	// savepoint names must be unique while nested
	spCounter atomic.Uint64
}

// Open opens (creating if needed) the database at path and applies the
// schema. The pool is pinned to a single connection so that SQL
// savepoints scope every statement issued through the store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Current balance per account, in cents
		`CREATE TABLE IF NOT EXISTS balances (
			account_id TEXT PRIMARY KEY,
			balance    INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Transaction journal
		`CREATE TABLE IF NOT EXISTS transactions (
			id          TEXT PRIMARY KEY,
			game_id     TEXT NOT NULL,
			date        TEXT NOT NULL,
			type        TEXT NOT NULL,
			category    TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			metadata    TEXT NOT NULL DEFAULT '{}',
			created_at  TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_game ON transactions(game_id, date)`,

		// Ledger entries (two or more per transaction, summing to zero)
		`CREATE TABLE IF NOT EXISTS entries (
			txn_id        TEXT NOT NULL,
			seq           INTEGER NOT NULL,
			account_id    TEXT NOT NULL,
			amount        INTEGER NOT NULL,
			balance_after INTEGER NOT NULL,
			PRIMARY KEY (txn_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_account ON entries(account_id)`,
	}
}

func (s *Store) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ─── AccountStore ───────────────────────────────────────────────────────────

// Balance returns an account's current balance. Unknown accounts are 0.
func (s *Store) Balance(accountID string) (int64, error) {
	var balance int64
	err := s.db.QueryRow(`
		SELECT balance FROM balances WHERE account_id = ?
	`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return balance, err
}

// Apply adds each entry's amount to its account balance and returns the
// entries with BalanceAfter filled in. The whole batch is applied inside
// one savepoint; any failure leaves every balance untouched.
func (s *Store) Apply(entries []domain.LedgerEntry) ([]domain.LedgerEntry, error) {
	name := fmt.Sprintf("apply_%d", s.spCounter.Add(1))
	if _, err := s.db.Exec("SAVEPOINT " + name); err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	applied, err := s.applyEntries(entries)
	if err != nil {
		s.db.Exec("ROLLBACK TO " + name)
		s.db.Exec("RELEASE " + name)
		return nil, err
	}
	if _, err := s.db.Exec("RELEASE " + name); err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	return applied, nil
}

func (s *Store) applyEntries(entries []domain.LedgerEntry) ([]domain.LedgerEntry, error) {
	applied := make([]domain.LedgerEntry, len(entries))
	for i, e := range entries {
		if _, err := s.db.Exec(`
			INSERT INTO balances (account_id, balance, updated_at)
			VALUES (?, ?, datetime('now'))
			ON CONFLICT(account_id) DO UPDATE SET
				balance    = balance + excluded.balance,
				updated_at = datetime('now')
		`, e.AccountID, e.Amount); err != nil {
			return nil, fmt.Errorf("apply entry %d: %w", i, err)
		}

		after, err := s.Balance(e.AccountID)
		if err != nil {
			return nil, fmt.Errorf("apply entry %d: %w", i, err)
		}
		applied[i] = domain.LedgerEntry{
			AccountID:    e.AccountID,
			Amount:       e.Amount,
			BalanceAfter: after,
		}
	}
	return applied, nil
}

// Savepoint opens a SQL savepoint covering all balance and journal
// writes until it is released or rolled back.
func (s *Store) Savepoint() (domain.Savepoint, error) {
	name := fmt.Sprintf("batch_%d", s.spCounter.Add(1))
	if _, err := s.db.Exec("SAVEPOINT " + name); err != nil {
		return nil, fmt.Errorf("savepoint: %w", err)
	}
	return &sqlSavepoint{db: s.db, name: name}, nil
}

type sqlSavepoint struct {
	db   *sql.DB
	name string
	done bool
}

func (sp *sqlSavepoint) Rollback() error {
	if sp.done {
		return nil
	}
	sp.done = true
	if _, err := sp.db.Exec("ROLLBACK TO " + sp.name); err != nil {
		return fmt.Errorf("rollback %s: %w", sp.name, err)
	}
	_, err := sp.db.Exec("RELEASE " + sp.name)
	return err
}

func (sp *sqlSavepoint) Release() error {
	if sp.done {
		return nil
	}
	sp.done = true
	_, err := sp.db.Exec("RELEASE " + sp.name)
	return err
}

// Balances returns every account balance, keyed by account ID.
func (s *Store) Balances() (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT account_id, balance FROM balances`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id string
		var balance int64
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, err
		}
		out[id] = balance
	}
	return out, rows.Err()
}
