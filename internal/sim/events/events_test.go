package events

import (
	"fmt"
	"testing"

	"github.com/pocketwise/pocketwise/internal/domain"
	"github.com/pocketwise/pocketwise/internal/sim/rng"
)

func parentCtx() RollContext {
	return RollContext{
		Date:          domain.GameDate{Year: 2024, Month: 6, Day: 30},
		Difficulty:    domain.DifficultyNormal,
		Persona:       domain.PersonaParent,
		Level:         10,
		MonthlyIncome: 400_000,
		IsMonthEnd:    true,
		IsQuarterEnd:  true,
	}
}

// ─── Rolling ────────────────────────────────────────────────────────────────

func TestRollDailyEventsDeterministic(t *testing.T) {
	ctx := parentCtx()

	a := RollDailyEvents(rng.New("game-1-42"), ctx)
	b := RollDailyEvents(rng.New("game-1-42"), ctx)

	if len(a) != len(b) {
		t.Fatalf("event counts diverged: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Amount != b[i].Amount {
			t.Errorf("event %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRollDailyEventsCadenceGating(t *testing.T) {
	ctx := parentCtx()
	ctx.IsMonthEnd = false
	ctx.IsQuarterEnd = false

	daily := map[EventKind]bool{}
	for _, def := range catalog {
		if def.Frequency == FrequencyDaily {
			daily[def.Kind] = true
		}
	}

	for i := 0; i < 2000; i++ {
		for _, ev := range RollDailyEvents(rng.New(fmt.Sprintf("cadence-%d", i)), ctx) {
			if !daily[ev.Kind] {
				t.Fatalf("%s triggered on a plain day", ev.Kind)
			}
		}
	}
}

func TestRollDailyEventsTaxRefundAprilOnly(t *testing.T) {
	ctx := parentCtx()
	ctx.Date = domain.GameDate{Year: 2024, Month: 3, Day: 31}

	for i := 0; i < 2000; i++ {
		for _, ev := range RollDailyEvents(rng.New(fmt.Sprintf("march-%d", i)), ctx) {
			if ev.Kind == EventTaxRefund {
				t.Fatal("tax refund triggered outside April")
			}
		}
	}

	ctx.Date = domain.GameDate{Year: 2024, Month: 4, Day: 30}
	seen := false
	for i := 0; i < 2000 && !seen; i++ {
		for _, ev := range RollDailyEvents(rng.New(fmt.Sprintf("april-%d", i)), ctx) {
			if ev.Kind == EventTaxRefund {
				seen = true
			}
		}
	}
	if !seen {
		t.Error("tax refund never triggered across 2000 April month-ends")
	}
}

func TestRollDailyEventsPersonaGating(t *testing.T) {
	ctx := parentCtx()
	ctx.Persona = domain.PersonaTeen
	ctx.Level = 1

	restricted := map[EventKind]bool{}
	for _, def := range catalog {
		if !def.matches(domain.PersonaTeen, 1) {
			restricted[def.Kind] = true
		}
	}
	if !restricted[EventJobLoss] || !restricted[EventParkingTicket] {
		t.Fatal("expected adult-only entries in the catalog")
	}

	for i := 0; i < 2000; i++ {
		for _, ev := range RollDailyEvents(rng.New(fmt.Sprintf("teen-%d", i)), ctx) {
			if restricted[ev.Kind] {
				t.Fatalf("%s triggered for a level-1 teen", ev.Kind)
			}
		}
	}
}

func TestDifficultyScalesNegativeEventRate(t *testing.T) {
	count := func(d domain.Difficulty) int {
		ctx := parentCtx()
		ctx.Difficulty = d
		ctx.IsMonthEnd = false
		ctx.IsQuarterEnd = false

		n := 0
		for i := 0; i < 5000; i++ {
			for _, ev := range RollDailyEvents(rng.New(fmt.Sprintf("scale-%d", i)), ctx) {
				if !ev.Positive {
					n++
				}
			}
		}
		return n
	}

	easy, hard := count(domain.DifficultyEasy), count(domain.DifficultyHard)
	if hard <= easy {
		t.Errorf("hard mode produced %d negative events vs %d on easy; want more", hard, easy)
	}
}

// ─── Resolution ─────────────────────────────────────────────────────────────

func defFor(t *testing.T, kind EventKind) EventDef {
	t.Helper()
	for _, d := range catalog {
		if d.Kind == kind {
			return d
		}
	}
	t.Fatalf("catalog is missing %s", kind)
	return EventDef{}
}

func TestResolvePercentEvents(t *testing.T) {
	ctx := parentCtx()
	for _, kind := range []EventKind{EventMarketCrash, EventPromotion, EventRentIncrease, EventUtilityPriceHike} {
		def := defFor(t, kind)
		ev := resolveEvent(rng.New("pct"), def, ctx)

		if ev.Amount.Kind != domain.AmountPercent {
			t.Errorf("%s amount kind = %s, want percent", kind, ev.Amount.Kind)
		}
		if bp := ev.Amount.Value; bp < def.AmountMin || bp > def.AmountMax {
			t.Errorf("%s basis points %d outside [%d, %d]", kind, bp, def.AmountMin, def.AmountMax)
		}
		if ev.RequiresDecision {
			t.Errorf("%s is a percentage event and must never require a decision", kind)
		}
	}
}

func TestResolveJobLossZeroAmount(t *testing.T) {
	ev := resolveEvent(rng.New("job"), defFor(t, EventJobLoss), parentCtx())
	if ev.Amount.Kind != domain.AmountCurrency || ev.Amount.Value != 0 {
		t.Errorf("job loss amount = %+v, want currency 0", ev.Amount)
	}
	if ev.RequiresDecision {
		t.Error("job loss must not require a decision")
	}
}

func TestResolveNegativeEventSign(t *testing.T) {
	def := defFor(t, EventMedicalEmergency)
	ev := resolveEvent(rng.New("neg"), def, parentCtx())

	if ev.Amount.Value >= 0 {
		t.Errorf("negative event amount = %d, want < 0", ev.Amount.Value)
	}
	if mag := -ev.Amount.Value; mag < def.AmountMin || mag > def.AmountMax {
		t.Errorf("magnitude %d outside [%d, %d]", mag, def.AmountMin, def.AmountMax)
	}
}

func TestRequiresDecisionElevation(t *testing.T) {
	def := defFor(t, EventHomeRepair) // draws at least $250

	ctx := parentCtx()
	ctx.MonthlyIncome = 100_000 // 10% = $100, always exceeded
	if ev := resolveEvent(rng.New("elevate"), def, ctx); !ev.RequiresDecision {
		t.Error("large loss against small income must require a decision")
	}

	ctx.MonthlyIncome = 100_000_000 // 10% = $100,000, never exceeded
	if ev := resolveEvent(rng.New("elevate"), def, ctx); ev.RequiresDecision {
		t.Error("small relative loss must not require a decision")
	}
}

func TestRequiresDecisionZeroIncome(t *testing.T) {
	// With no income (post job loss) the threshold is zero, so any loss
	// at all needs a decision instead of auto-applying.
	ctx := parentCtx()
	ctx.MonthlyIncome = 0

	for _, kind := range []EventKind{EventHomeRepair, EventParkingTicket} {
		ev := resolveEvent(rng.New("zero-income"), defFor(t, kind), ctx)
		if !ev.RequiresDecision {
			t.Errorf("%s loss against zero income must require a decision", kind)
		}
	}
}

// ─── Insurance ──────────────────────────────────────────────────────────────

func TestAdjustedPremium(t *testing.T) {
	cfg, ok := InsuranceFor(EventMedicalEmergency)
	if !ok {
		t.Fatal("medical emergency should be insurable")
	}

	tests := []struct {
		difficulty domain.Difficulty
		want       int64
	}{
		{domain.DifficultyEasy, 3_600},
		{domain.DifficultyNormal, 4_500},
		{domain.DifficultyHard, 5_400},
	}
	for _, tt := range tests {
		if got := AdjustedPremium(cfg, tt.difficulty); got != tt.want {
			t.Errorf("AdjustedPremium(%s) = %d, want %d", tt.difficulty, got, tt.want)
		}
	}
}

func TestCoveredAmount(t *testing.T) {
	cfg := InsuranceConfig{Deductible: 10_000, CoverageRate: 0.80}

	tests := []struct {
		name string
		loss int64
		want int64
	}{
		{"below deductible", 8_000, 0},
		{"at deductible", 10_000, 0},
		{"above deductible", 60_000, 40_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoveredAmount(cfg, tt.loss); got != tt.want {
				t.Errorf("CoveredAmount(%d) = %d, want %d", tt.loss, got, tt.want)
			}
		})
	}
}

func TestInsuranceForUncoveredKind(t *testing.T) {
	if _, ok := InsuranceFor(EventFoundMoney); ok {
		t.Error("found money should not be insurable")
	}
}

// ─── Bankruptcy ─────────────────────────────────────────────────────────────

func TestAssessBankruptcyStages(t *testing.T) {
	tests := []struct {
		name       string
		netWorth   int64
		income     int64
		negMonths  int
		active     bool
		posMonths  int
		wantStage  BankruptcyStage
		wantActive bool
	}{
		{"healthy", 500_000, 400_000, 0, false, 0, StageNone, false},
		{"mild debt", -400_000, 400_000, 1, false, 0, StageNone, false},
		{"stress at -2x", -800_000, 400_000, 1, false, 0, StageFinancialStress, false},
		{"distress at -3.5x", -1_400_000, 400_000, 1, false, 0, StageFinancialDistress, false},
		{"deep but not sustained", -2_400_000, 400_000, 2, false, 0, StageFinancialDistress, false},
		{"deep and sustained", -2_400_000, 400_000, 3, false, 0, StageBankruptcy, true},
		{"active, recovering", 100_000, 400_000, 0, true, 5, StageBankruptcy, true},
		{"active, discharged", 100_000, 400_000, 0, true, 6, StageNone, false},
		{"no income, in debt", -100_000, 0, 3, false, 0, StageBankruptcy, true},
		{"no income, solvent", 100_000, 0, 0, false, 0, StageNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessBankruptcy(tt.netWorth, tt.income, tt.negMonths, tt.active, tt.posMonths)
			if got.Stage != tt.wantStage {
				t.Errorf("stage = %s, want %s (ratio %v)", got.Stage, tt.wantStage, got.Ratio)
			}
			if got.Active != tt.wantActive {
				t.Errorf("active = %v, want %v", got.Active, tt.wantActive)
			}
		})
	}
}

// ─── Taxes ──────────────────────────────────────────────────────────────────

func TestCalculateTaxAssessment(t *testing.T) {
	tests := []struct {
		name     string
		income   int64
		withheld int64
		owed     int64
		refund   int64
		due      int64
	}{
		// $50,000: 10% of $10k + 15% of $30k + 22% of $10k = $7,700.
		{"three brackets, refund", 5_000_000, 800_000, 770_000, 30_000, 0},
		{"three brackets, bill", 5_000_000, 700_000, 770_000, 0, 70_000},
		{"first bracket only", 500_000, 50_000, 50_000, 0, 0},
		{"zero income refunds withholding", 0, 40_000, 0, 40_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := CalculateTaxAssessment(tt.income, tt.withheld)
			if a.TaxOwed != tt.owed {
				t.Errorf("TaxOwed = %d, want %d", a.TaxOwed, tt.owed)
			}
			if a.Refund != tt.refund {
				t.Errorf("Refund = %d, want %d", a.Refund, tt.refund)
			}
			if a.BalanceDue != tt.due {
				t.Errorf("BalanceDue = %d, want %d", a.BalanceDue, tt.due)
			}
		})
	}
}

func TestIsTaxFilingDay(t *testing.T) {
	if !IsTaxFilingDay(domain.GameDate{Year: 2024, Month: 4, Day: 15}) {
		t.Error("April 15 is filing day")
	}
	if IsTaxFilingDay(domain.GameDate{Year: 2024, Month: 4, Day: 14}) {
		t.Error("April 14 is not filing day")
	}
	if IsTaxFilingDay(domain.GameDate{Year: 2024, Month: 3, Day: 15}) {
		t.Error("March 15 is not filing day")
	}
}
