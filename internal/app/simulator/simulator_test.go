package simulator

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pocketwise/pocketwise/internal/domain"
	"github.com/pocketwise/pocketwise/internal/infra/catalog"
	"github.com/pocketwise/pocketwise/internal/infra/observability"
	"github.com/pocketwise/pocketwise/internal/sim/invest"
	"github.com/pocketwise/pocketwise/internal/sim/ledger"
)

func newTestSim() (*Simulator, *ledger.MemoryStore) {
	store := ledger.NewMemoryStore()
	return New(store, catalog.Default()), store
}

func addGame(s *Simulator, start domain.GameDate) *GameState {
	g := NewGameState("g1", domain.PersonaParent, domain.DifficultyNormal, start, 400_000)
	g.Level = 5
	s.AddGame(g)
	return g
}

// ─── Tick Basics ────────────────────────────────────────────────────────────

func TestTickUnknownGame(t *testing.T) {
	s, _ := newTestSim()
	if _, err := s.Tick("nope"); err == nil {
		t.Error("ticking an unregistered game should fail")
	}
}

func TestTickAdvancesDate(t *testing.T) {
	s, _ := newTestSim()
	g := addGame(s, domain.GameDate{Year: 2024, Month: 5, Day: 10})

	res, err := s.Tick("g1")
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if res.Date != (domain.GameDate{Year: 2024, Month: 5, Day: 10}) {
		t.Errorf("result date = %v, want the pre-advance date", res.Date)
	}
	if g.Date != (domain.GameDate{Year: 2024, Month: 5, Day: 11}) {
		t.Errorf("game date = %v, want advanced by one day", g.Date)
	}
	if g.DayCounter != 1 {
		t.Errorf("day counter = %d, want 1", g.DayCounter)
	}
	if res.Seed != "g1-0" {
		t.Errorf("seed = %q, want g1-0", res.Seed)
	}
}

func TestTickMidMonthSkipsMonthlyWork(t *testing.T) {
	s, _ := newTestSim()
	addGame(s, domain.GameDate{Year: 2024, Month: 5, Day: 10})

	res, err := s.Tick("g1")
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if res.Credit != nil {
		t.Error("mid-month tick must not recompute credit")
	}
	if res.Bankruptcy != nil {
		t.Error("mid-month tick must not assess bankruptcy")
	}
	for _, txn := range res.Transactions {
		if txn.Type == domain.TxIncome || txn.Type == domain.TxInterest {
			t.Errorf("mid-month tick created a %s transaction", txn.Type)
		}
	}
}

// ─── Determinism ────────────────────────────────────────────────────────────

func TestTickDeterministicAcrossRuns(t *testing.T) {
	run := func() TickResult {
		s, _ := newTestSim()
		addGame(s, domain.GameDate{Year: 2024, Month: 6, Day: 30})
		res, err := s.Tick("g1")
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
		return res
	}

	a, b := run(), run()

	if len(a.NewCards) != len(b.NewCards) {
		t.Fatalf("card counts diverged: %d vs %d", len(a.NewCards), len(b.NewCards))
	}
	for i := range a.NewCards {
		// Card identity is random, but template choice and pricing are
		// seeded.
		if a.NewCards[i].TemplateID != b.NewCards[i].TemplateID {
			t.Errorf("card %d template diverged: %s vs %s",
				i, a.NewCards[i].TemplateID, b.NewCards[i].TemplateID)
		}
		for j := range a.NewCards[i].Options {
			if a.NewCards[i].Options[j].Cost != b.NewCards[i].Options[j].Cost {
				t.Errorf("card %d option %d cost diverged", i, j)
			}
		}
	}

	if len(a.Events) != len(b.Events) {
		t.Fatalf("event counts diverged: %d vs %d", len(a.Events), len(b.Events))
	}
	for i := range a.Events {
		if a.Events[i].Kind != b.Events[i].Kind || a.Events[i].Amount != b.Events[i].Amount {
			t.Errorf("event %d diverged: %+v vs %+v", i, a.Events[i], b.Events[i])
		}
	}
}

// ─── Month End ──────────────────────────────────────────────────────────────

func TestMonthEndAppliesIncomeAndInterest(t *testing.T) {
	s, store := newTestSim()
	g := addGame(s, domain.GameDate{Year: 2024, Month: 5, Day: 31})
	store.Apply([]domain.LedgerEntry{{AccountID: g.SavingsAccountID, Amount: 1_000_000}})

	res, err := s.Tick("g1")
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}

	var sawIncome, sawInterest bool
	for _, txn := range res.Transactions {
		switch txn.Type {
		case domain.TxIncome:
			sawIncome = true
		case domain.TxInterest:
			sawInterest = true
		}
	}
	if !sawIncome {
		t.Error("month end should pay income")
	}
	if !sawInterest {
		t.Error("month end should accrue savings interest")
	}
	if res.Credit == nil {
		t.Error("month end should recompute credit")
	}
	if res.Bankruptcy == nil {
		t.Error("month end should assess bankruptcy")
	}

	// Net income: 400000 minus 15% withholding, plus whatever life
	// events happened to post to checking this tick.
	var eventDelta int64
	for _, txn := range res.Transactions {
		if txn.Type != domain.TxEvent {
			continue
		}
		for _, e := range txn.Entries {
			if e.AccountID == g.CheckingAccountID {
				eventDelta += e.Amount
			}
		}
	}
	if bal, _ := store.Balance(g.CheckingAccountID); bal != 340_000+eventDelta {
		t.Errorf("checking = %d, want %d", bal, 340_000+eventDelta)
	}
	// $10,000 at 2.5% APY accrues $20.60 for the month.
	if bal, _ := store.Balance(g.SavingsAccountID); bal != 1_002_060 {
		t.Errorf("savings = %d, want 1002060", bal)
	}
}

func TestMonthEndPortfolio(t *testing.T) {
	s, _ := newTestSim()
	g := addGame(s, domain.GameDate{Year: 2024, Month: 6, Day: 30})
	g.Holdings = []invest.Holding{
		{Kind: invest.AssetBond, Value: 1_000_000, PurchaseDate: domain.GameDate{Year: 2024, Month: 1, Day: 2}},
	}

	res, err := s.Tick("g1")
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// June is a quarter end, so the bond pays a cash dividend.
	var sawDividend bool
	for _, txn := range res.Transactions {
		if txn.Type == domain.TxDividend {
			sawDividend = true
		}
	}
	if !sawDividend {
		t.Error("quarter end should pay dividends on a bond holding")
	}
	if g.Holdings[0].Value < 1 {
		t.Error("holding value fell below the floor")
	}
}

func TestAllTransactionsBalanced(t *testing.T) {
	s, _ := newTestSim()
	addGame(s, domain.GameDate{Year: 2024, Month: 6, Day: 25})

	var all []domain.Transaction
	for i := 0; i < 10; i++ {
		res, err := s.Tick("g1")
		if err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
		all = append(all, res.Transactions...)
	}

	ok, bad := ledger.VerifyIntegrity(all)
	if !ok {
		t.Errorf("unbalanced transactions in tick output: %v", bad)
	}
}

// ─── Taxes ──────────────────────────────────────────────────────────────────

func TestTaxFilingDay(t *testing.T) {
	s, _ := newTestSim()
	g := addGame(s, domain.GameDate{Year: 2024, Month: 4, Day: 15})
	g.annualIncome = 5_000_000
	g.annualWithheld = 800_000

	res, err := s.Tick("g1")
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if res.Tax == nil {
		t.Fatal("April 15 tick should file taxes")
	}
	if res.Tax.Refund != 30_000 {
		t.Errorf("refund = %d, want 30000", res.Tax.Refund)
	}
	if g.annualIncome != 0 || g.annualWithheld != 0 {
		t.Error("tax accumulators should reset after filing")
	}

	var sawTax bool
	for _, txn := range res.Transactions {
		if txn.Type == domain.TxTax {
			sawTax = true
		}
	}
	if !sawTax {
		t.Error("a nonzero refund should post a tax transaction")
	}
}

// ─── Batches ────────────────────────────────────────────────────────────────

func TestApplyBatch(t *testing.T) {
	s, store := newTestSim()
	g := addGame(s, domain.GameDate{Year: 2024, Month: 5, Day: 10})

	txns, err := s.ApplyBatch("g1", []domain.TransactionInput{
		{
			GameID: "g1", Date: g.Date, Type: domain.TxTransfer,
			Entries: []domain.LedgerEntry{
				{AccountID: g.CheckingAccountID, Amount: -25_000},
				{AccountID: g.SavingsAccountID, Amount: 25_000},
			},
		},
		{
			GameID: "g1", Date: g.Date, Type: domain.TxTransfer,
			Entries: []domain.LedgerEntry{
				{AccountID: g.SavingsAccountID, Amount: -5_000},
				{AccountID: g.CheckingAccountID, Amount: 5_000},
			},
		},
	})
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("created %d transactions, want 2", len(txns))
	}
	if bal, _ := store.Balance(g.SavingsAccountID); bal != 20_000 {
		t.Errorf("savings = %d, want 20000", bal)
	}
}

func TestApplyBatchRollback(t *testing.T) {
	s, store := newTestSim()
	g := addGame(s, domain.GameDate{Year: 2024, Month: 5, Day: 10})
	before := testutil.ToFloat64(observability.BatchRollbacks)

	_, err := s.ApplyBatch("g1", []domain.TransactionInput{
		{
			GameID: "g1", Date: g.Date, Type: domain.TxTransfer,
			Entries: []domain.LedgerEntry{
				{AccountID: g.CheckingAccountID, Amount: -25_000},
				{AccountID: g.SavingsAccountID, Amount: 25_000},
			},
		},
		{
			GameID: "g1", Date: g.Date, Type: domain.TxTransfer,
			Entries: []domain.LedgerEntry{
				{AccountID: g.SavingsAccountID, Amount: -5_000},
			},
		},
	})
	if domain.CodeOf(err) != domain.CodeUnbalancedTransaction {
		t.Fatalf("err = %v, want UNBALANCED_TRANSACTION", err)
	}

	// The first input must be rolled back along with the bad one.
	if bal, _ := store.Balance(g.CheckingAccountID); bal != 0 {
		t.Errorf("checking = %d, want untouched 0", bal)
	}
	if got := testutil.ToFloat64(observability.BatchRollbacks) - before; got != 1 {
		t.Errorf("rollback counter moved by %v, want 1", got)
	}
}

func TestApplyBatchUnknownGame(t *testing.T) {
	s, _ := newTestSim()
	if _, err := s.ApplyBatch("nope", nil); err == nil {
		t.Error("batching against an unregistered game should fail")
	}
}

// ─── Card Resolution ────────────────────────────────────────────────────────

func TestResolveCardLifecycle(t *testing.T) {
	s, store := newTestSim()
	g := addGame(s, domain.GameDate{Year: 2024, Month: 5, Day: 10})
	store.Apply([]domain.LedgerEntry{{AccountID: g.CheckingAccountID, Amount: 500_000}})

	res, err := s.Tick("g1")
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(res.NewCards) == 0 {
		t.Fatal("expected at least one dealt card")
	}
	card := res.NewCards[0]

	resolution, rewards, err := s.ResolveCard("g1", card.ID, card.Options[0].ID)
	if err != nil {
		t.Fatalf("ResolveCard: %v", err)
	}
	if resolution.Option.ID != card.Options[0].ID {
		t.Errorf("resolved option = %q", resolution.Option.ID)
	}
	if rewards.Coins != card.Options[0].Coins {
		t.Errorf("coins = %d, want unmodified %d", rewards.Coins, card.Options[0].Coins)
	}
	if _, ok := g.PendingCards[card.ID]; ok {
		t.Error("resolved card should leave the pending set")
	}

	// Second resolution of the same card fails.
	if _, _, err := s.ResolveCard("g1", card.ID, card.Options[0].ID); domain.CodeOf(err) != domain.CodeCardNotFound {
		t.Errorf("err = %v, want CARD_NOT_FOUND", err)
	}
}

func TestExpirePendingCards(t *testing.T) {
	s, _ := newTestSim()
	g := addGame(s, domain.GameDate{Year: 2024, Month: 5, Day: 10})

	res, err := s.Tick("g1")
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	dealt := len(res.NewCards)
	if dealt == 0 {
		t.Fatal("expected dealt cards")
	}

	// Jump past every card's expiry.
	g.Date = g.Date.AddDays(10)
	if got := s.ExpirePendingCards("g1"); got != dealt {
		t.Errorf("expired %d cards, want %d", got, dealt)
	}
	if len(g.PendingCards) != 0 {
		t.Errorf("%d cards still pending", len(g.PendingCards))
	}
}
