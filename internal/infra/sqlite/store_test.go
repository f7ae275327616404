package sqlite

import (
	"testing"

	"github.com/pocketwise/pocketwise/internal/domain"
	"github.com/pocketwise/pocketwise/internal/sim/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ─── AccountStore ───────────────────────────────────────────────────────────

func TestBalanceUnknownAccount(t *testing.T) {
	s := openTestStore(t)
	bal, err := s.Balance("never-seen")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal != 0 {
		t.Errorf("balance = %d, want 0", bal)
	}
}

func TestApplyFillsBalanceAfter(t *testing.T) {
	s := openTestStore(t)

	applied, err := s.Apply([]domain.LedgerEntry{
		{AccountID: "checking", Amount: 10_000},
		{AccountID: "savings", Amount: 5_000},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied[0].BalanceAfter != 10_000 || applied[1].BalanceAfter != 5_000 {
		t.Errorf("balances after = %d, %d; want 10000, 5000",
			applied[0].BalanceAfter, applied[1].BalanceAfter)
	}

	applied, err = s.Apply([]domain.LedgerEntry{{AccountID: "checking", Amount: -3_000}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied[0].BalanceAfter != 7_000 {
		t.Errorf("balance after = %d, want 7000", applied[0].BalanceAfter)
	}
}

func TestApplyAllowsOverdraft(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Apply([]domain.LedgerEntry{{AccountID: "checking", Amount: -9_999}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	bal, _ := s.Balance("checking")
	if bal != -9_999 {
		t.Errorf("balance = %d, want -9999", bal)
	}
}

func TestSavepointRollback(t *testing.T) {
	s := openTestStore(t)
	s.Apply([]domain.LedgerEntry{{AccountID: "checking", Amount: 10_000}})

	sp, err := s.Savepoint()
	if err != nil {
		t.Fatalf("Savepoint: %v", err)
	}
	s.Apply([]domain.LedgerEntry{{AccountID: "checking", Amount: -4_000}})
	s.Apply([]domain.LedgerEntry{{AccountID: "savings", Amount: 4_000}})

	if err := sp.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if bal, _ := s.Balance("checking"); bal != 10_000 {
		t.Errorf("checking = %d, want 10000 after rollback", bal)
	}
	if bal, _ := s.Balance("savings"); bal != 0 {
		t.Errorf("savings = %d, want 0 after rollback", bal)
	}
}

func TestSavepointRelease(t *testing.T) {
	s := openTestStore(t)

	sp, _ := s.Savepoint()
	s.Apply([]domain.LedgerEntry{{AccountID: "checking", Amount: 2_500}})
	if err := sp.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	// Idempotent: a released savepoint ignores further calls.
	if err := sp.Rollback(); err != nil {
		t.Fatalf("Rollback after Release: %v", err)
	}

	if bal, _ := s.Balance("checking"); bal != 2_500 {
		t.Errorf("checking = %d, want 2500 after release", bal)
	}
}

// The store must satisfy the same batch semantics as the memory store
// when driven through the ledger.
func TestCreateBatchAgainstSQLite(t *testing.T) {
	s := openTestStore(t)
	s.Apply([]domain.LedgerEntry{{AccountID: "checking", Amount: 50_000}})

	date := domain.GameDate{Year: 2024, Month: 2, Day: 1}
	_, err := ledger.CreateBatch([]domain.TransactionInput{
		{
			GameID: "g1", Date: date, Type: domain.TxTransfer,
			Entries: []domain.LedgerEntry{
				{AccountID: "checking", Amount: -20_000},
				{AccountID: "savings", Amount: 20_000},
			},
		},
		{
			GameID: "g1", Date: date, Type: domain.TxTransfer,
			Entries: []domain.LedgerEntry{
				{AccountID: "checking", Amount: -5_000},
				// unbalanced on purpose
				{AccountID: "savings", Amount: 4_000},
			},
		},
	}, s)
	if domain.CodeOf(err) != domain.CodeUnbalancedTransaction {
		t.Fatalf("err = %v, want UNBALANCED_TRANSACTION", err)
	}

	if bal, _ := s.Balance("checking"); bal != 50_000 {
		t.Errorf("checking = %d, want untouched 50000", bal)
	}
	if bal, _ := s.Balance("savings"); bal != 0 {
		t.Errorf("savings = %d, want untouched 0", bal)
	}
}

func TestBalancesSnapshot(t *testing.T) {
	s := openTestStore(t)
	s.Apply([]domain.LedgerEntry{
		{AccountID: "a", Amount: 1},
		{AccountID: "b", Amount: 2},
	})

	all, err := s.Balances()
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if len(all) != 2 || all["a"] != 1 || all["b"] != 2 {
		t.Errorf("balances = %v", all)
	}
}
