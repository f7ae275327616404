package domain

// ─── Store Interfaces ───────────────────────────────────────────────────────
// The account store is the one piece of shared mutable state in the core.
// It is owned by the caller/orchestrator; the ledger mutates it through
// this boundary. Implementations may back it with a plain map or a
// transactional store. The contract requires a single writer at a time
// per game — no locking is provided behind this interface.

// AccountStore maps account identifiers to integer balances in cents.
type AccountStore interface {
	// Balance returns the current balance of an account.
	// Unknown accounts have balance 0.
	Balance(accountID string) (int64, error)

	// Apply adds each entry's amount to its account (creating unknown
	// accounts at 0) and returns the entries with BalanceAfter filled in.
	// Negative resulting balances are permitted: overdraft is a game
	// mechanic, not an error.
	Apply(entries []LedgerEntry) ([]LedgerEntry, error)

	// Savepoint marks the current state so a batch can be rolled back
	// as a unit. Exactly one of Rollback or Release must be called.
	Savepoint() (Savepoint, error)
}

// Savepoint restores or discards a marked store state.
type Savepoint interface {
	// Rollback restores the store to the state at the savepoint.
	Rollback() error

	// Release discards the savepoint, keeping all changes since.
	Release() error
}
