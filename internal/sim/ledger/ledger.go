// Package ledger implements double-entry transaction creation over an
// account store.
//
// Every transaction has at least two entries whose integer amounts sum to
// exactly zero — no tolerance. The ledger performs no sufficiency checks:
// negative balances are overdraft, a game mechanic the caller prices via
// overdraft interest. Batches are all-or-nothing through the store's
// savepoint mechanism.
package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pocketwise/pocketwise/internal/domain"
)

// ValidateEntries checks the double-entry invariant: at least two entries,
// amounts summing to exactly zero.
func ValidateEntries(entries []domain.LedgerEntry) error {
	if len(entries) < 2 {
		return domain.Errorf(domain.CodeUnbalancedTransaction,
			"transaction needs at least 2 entries, got %d", len(entries))
	}

	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}
	if sum != 0 {
		return domain.Errorf(domain.CodeUnbalancedTransaction,
			"entries sum to %d, want 0", sum)
	}
	return nil
}

// CreateTransaction validates the input, applies its entries to the store,
// and returns the immutable transaction with a fresh identifier and
// post-entry balances recorded.
func CreateTransaction(input domain.TransactionInput, store domain.AccountStore) (domain.Transaction, error) {
	if err := ValidateEntries(input.Entries); err != nil {
		return domain.Transaction{}, err
	}

	applied, err := store.Apply(input.Entries)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("apply entries: %w", err)
	}

	tx := domain.Transaction{
		ID:          uuid.NewString(),
		GameID:      input.GameID,
		Date:        input.Date,
		Type:        input.Type,
		Category:    input.Category,
		Description: input.Description,
		Entries:     applied,
	}
	if len(input.Metadata) > 0 {
		tx.Metadata = make(map[string]string, len(input.Metadata))
		for k, v := range input.Metadata {
			tx.Metadata[k] = v
		}
	}
	return tx, nil
}

// CreateBatch applies each input in order. On any failure the store is
// rolled back to its pre-batch state and the error propagates: the store
// reflects all of the batch or none of it.
func CreateBatch(inputs []domain.TransactionInput, store domain.AccountStore) ([]domain.Transaction, error) {
	sp, err := store.Savepoint()
	if err != nil {
		return nil, fmt.Errorf("open savepoint: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(inputs))
	for i, input := range inputs {
		tx, err := CreateTransaction(input, store)
		if err != nil {
			if rbErr := sp.Rollback(); rbErr != nil {
				return nil, fmt.Errorf("rollback after input %d (%v): %w", i, err, rbErr)
			}
			return nil, fmt.Errorf("batch input %d: %w", i, err)
		}
		txs = append(txs, tx)
	}

	if err := sp.Release(); err != nil {
		return nil, fmt.Errorf("release savepoint: %w", err)
	}
	return txs, nil
}

// CreateTransfer is sugar for a balanced two-entry move of amount cents
// from one account to another. The amount must be positive.
func CreateTransfer(gameID string, date domain.GameDate, from, to string, amount int64, category, description string, store domain.AccountStore) (domain.Transaction, error) {
	if amount <= 0 {
		return domain.Transaction{}, domain.Errorf(domain.CodeInvalidAmount,
			"transfer amount %d must be positive", amount)
	}

	return CreateTransaction(domain.TransactionInput{
		GameID:      gameID,
		Date:        date,
		Type:        domain.TxTransfer,
		Category:    category,
		Description: description,
		Entries: []domain.LedgerEntry{
			{AccountID: from, Amount: -amount},
			{AccountID: to, Amount: amount},
		},
	}, store)
}

// VerifyIntegrity audits a transaction log: every transaction's entries
// must independently sum to zero. Pure — the store is never touched.
// Returns ok plus the IDs of any unbalanced transactions.
func VerifyIntegrity(transactions []domain.Transaction) (bool, []string) {
	var unbalanced []string
	for _, tx := range transactions {
		var sum int64
		for _, e := range tx.Entries {
			sum += e.Amount
		}
		if sum != 0 || len(tx.Entries) < 2 {
			unbalanced = append(unbalanced, tx.ID)
		}
	}
	return len(unbalanced) == 0, unbalanced
}
