package domain

// ─── Ledger Types ───────────────────────────────────────────────────────────
// Double-entry bookkeeping over integer minor units. A transaction groups
// two or more entries whose amounts sum to exactly zero.

// TransactionType is the business reason for a transaction.
type TransactionType string

const (
	TxIncome   TransactionType = "income"
	TxExpense  TransactionType = "expense"
	TxTransfer TransactionType = "transfer"
	TxInterest TransactionType = "interest"
	TxDividend TransactionType = "dividend"
	TxEvent    TransactionType = "event"
	TxCard     TransactionType = "card"
	TxTax      TransactionType = "tax"
)

// LedgerEntry is one leg of a transaction. Amount is signed cents;
// BalanceAfter is the account balance recorded after the entry applied.
type LedgerEntry struct {
	AccountID    string `json:"account_id"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
}

// Transaction is an immutable, balanced group of ledger entries.
// Identity is assigned by the ledger at creation time.
type Transaction struct {
	ID          string            `json:"id"`
	GameID      string            `json:"game_id"`
	Date        GameDate          `json:"date"`
	Type        TransactionType   `json:"type"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Entries     []LedgerEntry     `json:"entries"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// TransactionInput is the caller-supplied half of a transaction, before
// the ledger assigns an ID and records post-entry balances.
type TransactionInput struct {
	GameID      string
	Date        GameDate
	Type        TransactionType
	Category    string
	Description string
	Entries     []LedgerEntry
	Metadata    map[string]string
}
