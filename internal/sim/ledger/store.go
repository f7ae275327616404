package ledger

import "github.com/pocketwise/pocketwise/internal/domain"

// ─── In-Memory Account Store ────────────────────────────────────────────────

// MemoryStore is the default map-backed account store. Savepoints are
// full snapshots, which keeps batch rollback trivially correct for the
// handful of accounts a single game holds.
//
// Not safe for concurrent use: the orchestrator must serialize simulation
// steps per game.
type MemoryStore struct {
	balances map[string]int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{balances: make(map[string]int64)}
}

// NewMemoryStoreWith creates a store seeded with initial balances.
func NewMemoryStoreWith(initial map[string]int64) *MemoryStore {
	s := NewMemoryStore()
	for id, bal := range initial {
		s.balances[id] = bal
	}
	return s
}

// Balance returns the account balance; unknown accounts are 0.
func (s *MemoryStore) Balance(accountID string) (int64, error) {
	return s.balances[accountID], nil
}

// Apply adds each entry's amount to its account and fills in BalanceAfter.
func (s *MemoryStore) Apply(entries []domain.LedgerEntry) ([]domain.LedgerEntry, error) {
	out := make([]domain.LedgerEntry, len(entries))
	for i, e := range entries {
		s.balances[e.AccountID] += e.Amount
		e.BalanceAfter = s.balances[e.AccountID]
		out[i] = e
	}
	return out, nil
}

// Savepoint snapshots the full balance map.
func (s *MemoryStore) Savepoint() (domain.Savepoint, error) {
	snapshot := make(map[string]int64, len(s.balances))
	for id, bal := range s.balances {
		snapshot[id] = bal
	}
	return &memorySavepoint{store: s, snapshot: snapshot}, nil
}

// Balances returns a copy of all balances, for callers computing
// aggregates such as net worth.
func (s *MemoryStore) Balances() map[string]int64 {
	out := make(map[string]int64, len(s.balances))
	for id, bal := range s.balances {
		out[id] = bal
	}
	return out
}

// TotalBalance sums every account balance.
func (s *MemoryStore) TotalBalance() int64 {
	var total int64
	for _, bal := range s.balances {
		total += bal
	}
	return total
}

type memorySavepoint struct {
	store    *MemoryStore
	snapshot map[string]int64
}

func (sp *memorySavepoint) Rollback() error {
	sp.store.balances = sp.snapshot
	return nil
}

func (sp *memorySavepoint) Release() error {
	sp.snapshot = nil
	return nil
}
