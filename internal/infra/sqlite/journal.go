package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/pocketwise/pocketwise/internal/domain"
)

// ─── Journal Operations ─────────────────────────────────────────────────────

// RecordTransaction appends a transaction and its entries to the
// journal. The write shares the store's savepoint scope, so a batch
// rollback also removes journal rows written inside it.
func (s *Store) RecordTransaction(t domain.Transaction) error {
	metadata := "{}"
	if len(t.Metadata) > 0 {
		raw, err := json.Marshal(t.Metadata)
		if err != nil {
			return fmt.Errorf("record %s: %w", t.ID, err)
		}
		metadata = string(raw)
	}

	if _, err := s.db.Exec(`
		INSERT INTO transactions (id, game_id, date, type, category, description, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.GameID, t.Date.String(), string(t.Type), t.Category, t.Description, metadata); err != nil {
		return fmt.Errorf("record %s: %w", t.ID, err)
	}

	for i, e := range t.Entries {
		if _, err := s.db.Exec(`
			INSERT INTO entries (txn_id, seq, account_id, amount, balance_after)
			VALUES (?, ?, ?, ?, ?)
		`, t.ID, i, e.AccountID, e.Amount, e.BalanceAfter); err != nil {
			return fmt.Errorf("record %s entry %d: %w", t.ID, i, err)
		}
	}
	return nil
}

// TransactionsForGame returns a game's journal in date order.
func (s *Store) TransactionsForGame(gameID string) ([]domain.Transaction, error) {
	rows, err := s.db.Query(`
		SELECT id, game_id, date, type, category, description, metadata
		FROM transactions WHERE game_id = ? ORDER BY date, created_at
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Drain the transaction rows before querying entries: the pool is a
	// single connection, so a nested query would starve.
	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var date, txnType, metadata string
		if err := rows.Scan(&t.ID, &t.GameID, &date, &txnType, &t.Category, &t.Description, &metadata); err != nil {
			return nil, err
		}
		t.Type = domain.TransactionType(txnType)
		if t.Date, err = parseGameDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if metadata != "{}" && metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &t.Metadata); err != nil {
				return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
			}
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range txns {
		if txns[i].Entries, err = s.entriesFor(txns[i].ID); err != nil {
			return nil, err
		}
	}
	return txns, nil
}

func (s *Store) entriesFor(txnID string) ([]domain.LedgerEntry, error) {
	rows, err := s.db.Query(`
		SELECT account_id, amount, balance_after
		FROM entries WHERE txn_id = ? ORDER BY seq
	`, txnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.AccountID, &e.Amount, &e.BalanceAfter); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ─── Integrity Audit ────────────────────────────────────────────────────────

// IntegrityAudit checks every journaled transaction for double-entry
// validity (two or more entries, summing to zero) and returns the IDs of
// any that fail.
func (s *Store) IntegrityAudit() (bool, []string, error) {
	rows, err := s.db.Query(`
		SELECT txn_id FROM entries
		GROUP BY txn_id
		HAVING SUM(amount) != 0 OR COUNT(*) < 2
		ORDER BY txn_id
	`)
	if err != nil {
		return false, nil, err
	}
	defer rows.Close()

	var bad []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return false, nil, err
		}
		bad = append(bad, id)
	}
	if err := rows.Err(); err != nil {
		return false, nil, err
	}
	return len(bad) == 0, bad, nil
}

// parseGameDate reads the journal's YYYY-MM-DD date format.
func parseGameDate(s string) (domain.GameDate, error) {
	var d domain.GameDate
	if _, err := fmt.Sscanf(s, "%d-%d-%d", &d.Year, &d.Month, &d.Day); err != nil {
		return domain.GameDate{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}
