// Package events rolls random life events against a static catalog and
// derives bankruptcy and tax assessments.
//
// The roller is called once per simulated day. Catalog entries are gated
// by persona, level, and cadence (daily entries every call, monthly
// entries only at month end, quarterly entries only at quarter end), and
// their trigger probabilities are scaled by difficulty so that hard mode
// favors negative events and easy mode favors positive ones. Triggered
// events are ephemeral values the orchestrator consumes immediately.
package events

import (
	"github.com/pocketwise/pocketwise/internal/domain"
	"github.com/pocketwise/pocketwise/internal/sim/interest"
	"github.com/pocketwise/pocketwise/internal/sim/rng"
)

// ─── Catalog ────────────────────────────────────────────────────────────────

// EventKind is the closed set of life events the roller can trigger.
type EventKind string

const (
	EventMedicalEmergency EventKind = "medical_emergency"
	EventCarBreakdown     EventKind = "car_breakdown"
	EventJobLoss          EventKind = "job_loss"
	EventBonus            EventKind = "bonus"
	EventTaxRefund        EventKind = "tax_refund"
	EventHomeRepair       EventKind = "home_repair"
	EventIdentityTheft    EventKind = "identity_theft"
	EventInheritance      EventKind = "inheritance"
	EventMarketCrash      EventKind = "market_crash"
	EventWedding          EventKind = "wedding"
	EventPetEmergency     EventKind = "pet_emergency"
	EventDeviceFailure    EventKind = "device_failure"
	EventParkingTicket    EventKind = "parking_ticket"
	EventFoundMoney       EventKind = "found_money"
	EventPromotion        EventKind = "promotion"
	EventRentIncrease     EventKind = "rent_increase"
	EventUtilityPriceHike EventKind = "utility_price_hike"
)

// FrequencyTier is how often a catalog entry is even considered.
type FrequencyTier string

const (
	FrequencyDaily     FrequencyTier = "daily"
	FrequencyMonthly   FrequencyTier = "monthly"
	FrequencyQuarterly FrequencyTier = "quarterly"
)

// EventDef is one static catalog entry.
//
// For percentage events (IsPercent) the amount range is in basis points
// and the triggered amount is a magnitude the caller resolves against the
// relevant balance; for everything else the range is in cents.
type EventDef struct {
	Kind            EventKind
	Description     string
	BaseProbability float64
	Frequency       FrequencyTier
	AmountMin       int64
	AmountMax       int64
	IsPercent       bool
	Affected        domain.AccountType
	Insurable       bool
	Personas        []domain.Persona // empty = all personas
	MinLevel        int
	Positive        bool
}

// matches reports whether the entry is in play for a persona/level.
func (d EventDef) matches(persona domain.Persona, level int) bool {
	if level < d.MinLevel {
		return false
	}
	if len(d.Personas) == 0 {
		return true
	}
	for _, p := range d.Personas {
		if p == persona {
			return true
		}
	}
	return false
}

var adults = []domain.Persona{domain.PersonaYoungAdult, domain.PersonaParent}

// catalog is the immutable life-event table. Probabilities are per-roll
// at normal difficulty, before scaling.
var catalog = []EventDef{
	{Kind: EventMedicalEmergency, Description: "An unexpected trip to urgent care.",
		BaseProbability: 0.010, Frequency: FrequencyDaily,
		AmountMin: 15_000, AmountMax: 120_000, Affected: domain.AccountChecking, Insurable: true},
	{Kind: EventCarBreakdown, Description: "The car won't start this morning.",
		BaseProbability: 0.008, Frequency: FrequencyDaily,
		AmountMin: 10_000, AmountMax: 80_000, Affected: domain.AccountChecking, Insurable: true,
		Personas: adults, MinLevel: 2},
	{Kind: EventJobLoss, Description: "Your employer announced layoffs.",
		BaseProbability: 0.015, Frequency: FrequencyMonthly,
		Affected: domain.AccountChecking, Personas: adults, MinLevel: 4},
	{Kind: EventBonus, Description: "Your manager handed out a performance bonus.",
		BaseProbability: 0.050, Frequency: FrequencyMonthly,
		AmountMin: 20_000, AmountMax: 150_000, Affected: domain.AccountChecking,
		Personas: adults, MinLevel: 2, Positive: true},
	{Kind: EventTaxRefund, Description: "The tax office processed your refund.",
		BaseProbability: 0.200, Frequency: FrequencyMonthly,
		AmountMin: 10_000, AmountMax: 90_000, Affected: domain.AccountChecking,
		MinLevel: 3, Positive: true},
	{Kind: EventHomeRepair, Description: "The water heater gave out.",
		BaseProbability: 0.030, Frequency: FrequencyMonthly,
		AmountMin: 25_000, AmountMax: 200_000, Affected: domain.AccountChecking, Insurable: true,
		Personas: []domain.Persona{domain.PersonaParent}, MinLevel: 3},
	{Kind: EventIdentityTheft, Description: "Suspicious charges appeared on your card.",
		BaseProbability: 0.010, Frequency: FrequencyQuarterly,
		AmountMin: 5_000, AmountMax: 50_000, Affected: domain.AccountChecking, Insurable: true,
		MinLevel: 3},
	{Kind: EventInheritance, Description: "A distant relative left you something.",
		BaseProbability: 0.020, Frequency: FrequencyQuarterly,
		AmountMin: 50_000, AmountMax: 500_000, Affected: domain.AccountSavings,
		MinLevel: 5, Positive: true},
	{Kind: EventMarketCrash, Description: "Markets dropped sharply overnight.",
		BaseProbability: 0.050, Frequency: FrequencyQuarterly,
		AmountMin: 500, AmountMax: 2_500, IsPercent: true,
		Affected: domain.AccountInvestment, MinLevel: 4},
	{Kind: EventWedding, Description: "A close friend is getting married.",
		BaseProbability: 0.040, Frequency: FrequencyQuarterly,
		AmountMin: 10_000, AmountMax: 60_000, Affected: domain.AccountChecking,
		Personas: adults, MinLevel: 2},
	{Kind: EventPetEmergency, Description: "The vet found something serious.",
		BaseProbability: 0.008, Frequency: FrequencyDaily,
		AmountMin: 8_000, AmountMax: 60_000, Affected: domain.AccountChecking, Insurable: true,
		MinLevel: 2},
	{Kind: EventDeviceFailure, Description: "Your phone screen is done for.",
		BaseProbability: 0.006, Frequency: FrequencyDaily,
		AmountMin: 5_000, AmountMax: 40_000, Affected: domain.AccountChecking},
	{Kind: EventParkingTicket, Description: "A ticket was waiting on the windshield.",
		BaseProbability: 0.012, Frequency: FrequencyDaily,
		AmountMin: 2_500, AmountMax: 7_500, Affected: domain.AccountChecking,
		Personas: adults},
	{Kind: EventFoundMoney, Description: "You found cash in an old jacket.",
		BaseProbability: 0.010, Frequency: FrequencyDaily,
		AmountMin: 500, AmountMax: 5_000, Affected: domain.AccountChecking, Positive: true},
	{Kind: EventPromotion, Description: "You've been promoted.",
		BaseProbability: 0.040, Frequency: FrequencyQuarterly,
		AmountMin: 300, AmountMax: 1_200, IsPercent: true,
		Affected: domain.AccountChecking, Personas: adults, MinLevel: 5, Positive: true},
	{Kind: EventRentIncrease, Description: "The landlord raised the rent.",
		BaseProbability: 0.100, Frequency: FrequencyQuarterly,
		AmountMin: 300, AmountMax: 1_000, IsPercent: true,
		Affected: domain.AccountChecking, Personas: adults, MinLevel: 3},
	{Kind: EventUtilityPriceHike, Description: "Utility rates went up.",
		BaseProbability: 0.080, Frequency: FrequencyQuarterly,
		AmountMin: 200, AmountMax: 800, IsPercent: true,
		Affected: domain.AccountChecking, MinLevel: 2},
}

// Catalog returns a copy of the life-event table.
func Catalog() []EventDef {
	out := make([]EventDef, len(catalog))
	copy(out, catalog)
	return out
}

// ─── Rolling ────────────────────────────────────────────────────────────────

// decisionIncomeShare is the fraction of monthly income above which a
// negative currency event needs an explicit player decision.
const decisionIncomeShare = 0.10

// TriggeredEvent is an ephemeral record of one event that fired today.
//
// Currency amounts are signed (negative events carry negative cents).
// Percentage amounts are positive basis-point magnitudes; the caller
// resolves them against the affected balance in the event's direction.
type TriggeredEvent struct {
	Kind             EventKind          `json:"kind"`
	Description      string             `json:"description"`
	Date             domain.GameDate    `json:"date"`
	Amount           domain.EventAmount `json:"amount"`
	Affected         domain.AccountType `json:"affected"`
	Positive         bool               `json:"positive"`
	RequiresDecision bool               `json:"requires_decision"`
}

// RollContext is the game state the roller needs for one day.
type RollContext struct {
	Date          domain.GameDate
	Difficulty    domain.Difficulty
	Persona       domain.Persona
	Level         int
	MonthlyIncome int64
	IsMonthEnd    bool
	IsQuarterEnd  bool
}

// RollDailyEvents rolls every cadence-eligible catalog entry once and
// returns the events that triggered, in catalog order. Tax refunds are
// only considered in April. One uniform draw is spent per eligible entry,
// so the draw order is stable for a given context.
func RollDailyEvents(r *rng.RNG, ctx RollContext) []TriggeredEvent {
	mult := ctx.Difficulty.Multiplier()

	var triggered []TriggeredEvent
	for _, def := range catalog {
		if !def.matches(ctx.Persona, ctx.Level) {
			continue
		}
		switch def.Frequency {
		case FrequencyMonthly:
			if !ctx.IsMonthEnd {
				continue
			}
		case FrequencyQuarterly:
			if !ctx.IsQuarterEnd {
				continue
			}
		}
		if def.Kind == EventTaxRefund && ctx.Date.Month != 4 {
			continue
		}

		p := def.BaseProbability * mult
		if def.Positive {
			p = def.BaseProbability * (2 - mult)
		}
		if r.Float64() >= p {
			continue
		}

		triggered = append(triggered, resolveEvent(r, def, ctx))
	}
	return triggered
}

// resolveEvent draws the triggered event's amount and decision flag.
func resolveEvent(r *rng.RNG, def EventDef, ctx RollContext) TriggeredEvent {
	ev := TriggeredEvent{
		Kind:        def.Kind,
		Description: def.Description,
		Date:        ctx.Date,
		Affected:    def.Affected,
		Positive:    def.Positive,
	}

	switch {
	case def.IsPercent:
		ev.Amount = domain.Percent(r.Int64Between(def.AmountMin, def.AmountMax))
	case def.Kind == EventJobLoss:
		// The income stream stops; there is no one-off amount to apply.
		ev.Amount = domain.Currency(0)
	default:
		cents := r.Int64Between(def.AmountMin, def.AmountMax)
		if !def.Positive {
			cents = -cents
		}
		ev.Amount = domain.Currency(cents)

		// At zero income the threshold is zero, so every loss is
		// elevated rather than auto-applied.
		threshold := int64(float64(ctx.MonthlyIncome) * decisionIncomeShare)
		if cents < 0 && -cents > threshold {
			ev.RequiresDecision = true
		}
	}
	return ev
}

// ─── Insurance ──────────────────────────────────────────────────────────────

// InsuranceConfig is the coverage offered against one event kind.
// Premium and Deductible are cents per month; CoverageRate is the share
// of the loss above the deductible that the policy pays.
type InsuranceConfig struct {
	Premium      int64
	Deductible   int64
	CoverageRate float64
}

var insuranceTable = map[EventKind]InsuranceConfig{
	EventMedicalEmergency: {Premium: 4_500, Deductible: 10_000, CoverageRate: 0.80},
	EventCarBreakdown:     {Premium: 6_000, Deductible: 25_000, CoverageRate: 0.70},
	EventHomeRepair:       {Premium: 8_000, Deductible: 50_000, CoverageRate: 0.75},
	EventPetEmergency:     {Premium: 2_500, Deductible: 5_000, CoverageRate: 0.80},
	EventIdentityTheft:    {Premium: 1_500, Deductible: 0, CoverageRate: 1.00},
}

// InsuranceFor returns the coverage config for an event kind, if any.
func InsuranceFor(kind EventKind) (InsuranceConfig, bool) {
	cfg, ok := insuranceTable[kind]
	return cfg, ok
}

// AdjustedPremium scales a policy premium by the difficulty multiplier.
func AdjustedPremium(cfg InsuranceConfig, difficulty domain.Difficulty) int64 {
	return interest.BankersRound(float64(cfg.Premium) * difficulty.Multiplier())
}

// CoveredAmount returns how much of a loss the policy reimburses.
// The loss is a positive magnitude in cents.
func CoveredAmount(cfg InsuranceConfig, loss int64) int64 {
	if loss <= cfg.Deductible {
		return 0
	}
	return interest.BankersRound(float64(loss-cfg.Deductible) * cfg.CoverageRate)
}

// ─── Bankruptcy ─────────────────────────────────────────────────────────────

// BankruptcyStage is the closed set of financial-distress stages.
type BankruptcyStage string

const (
	StageNone              BankruptcyStage = "none"
	StageFinancialStress   BankruptcyStage = "financial_stress"
	StageFinancialDistress BankruptcyStage = "financial_distress"
	StageBankruptcy        BankruptcyStage = "bankruptcy"
)

// Net-worth-to-monthly-income ratio thresholds for each stage.
const (
	stressRatio     = -2.0
	distressRatio   = -3.5
	bankruptcyRatio = -5.0

	// Months of qualifying ratio required to enter bankruptcy, and
	// months of positive net worth required to exit it.
	bankruptcyEntryMonths = 3
	bankruptcyExitMonths  = 6
)

// BankruptcyAssessment is a pure derived value, recomputed every call.
type BankruptcyAssessment struct {
	Stage  BankruptcyStage `json:"stage"`
	Ratio  float64         `json:"ratio"` // net worth / monthly income
	Active bool            `json:"active"`
}

// AssessBankruptcy classifies the player's distress stage from the
// net-worth/income ratio. Bankruptcy is entered only after three or more
// consecutive qualifying months and, once active, is exited only after
// six consecutive months of positive net worth.
func AssessBankruptcy(netWorth, monthlyIncome int64, consecutiveNegativeMonths int, bankruptcyActive bool, monthsPositive int) BankruptcyAssessment {
	ratio := netWorthRatio(netWorth, monthlyIncome)

	if bankruptcyActive {
		if monthsPositive >= bankruptcyExitMonths {
			return BankruptcyAssessment{Stage: StageNone, Ratio: ratio}
		}
		return BankruptcyAssessment{Stage: StageBankruptcy, Ratio: ratio, Active: true}
	}

	a := BankruptcyAssessment{Stage: StageNone, Ratio: ratio}
	switch {
	case ratio <= bankruptcyRatio && consecutiveNegativeMonths >= bankruptcyEntryMonths:
		a.Stage = StageBankruptcy
		a.Active = true
	case ratio <= distressRatio:
		a.Stage = StageFinancialDistress
	case ratio <= stressRatio:
		a.Stage = StageFinancialStress
	}
	return a
}

// netWorthRatio guards the zero-income case: with no income, any
// negative net worth already pins the worst ratio.
func netWorthRatio(netWorth, monthlyIncome int64) float64 {
	if monthlyIncome <= 0 {
		if netWorth < 0 {
			return bankruptcyRatio
		}
		return 0
	}
	return float64(netWorth) / float64(monthlyIncome)
}

// ─── Taxes ──────────────────────────────────────────────────────────────────

// taxBracket taxes income above Floor (exclusive of lower brackets) at
// Rate, up to the next bracket's floor.
type taxBracket struct {
	Floor int64 // annual income in cents
	Rate  float64
}

// Progressive annual schedule, deliberately simplified for the game.
var taxBrackets = []taxBracket{
	{Floor: 0, Rate: 0.10},
	{Floor: 1_000_000, Rate: 0.15}, // above $10,000
	{Floor: 4_000_000, Rate: 0.22}, // above $40,000
}

// TaxAssessment compares annual tax owed against what was withheld.
// Exactly one of Refund and BalanceDue is nonzero (or both are zero).
type TaxAssessment struct {
	AnnualIncome int64 `json:"annual_income"`
	TaxOwed      int64 `json:"tax_owed"`
	Withheld     int64 `json:"withheld"`
	Refund       int64 `json:"refund"`
	BalanceDue   int64 `json:"balance_due"`
}

// CalculateTaxAssessment applies the progressive schedule to annual
// income and nets the result against withholding.
func CalculateTaxAssessment(annualIncome, withheld int64) TaxAssessment {
	a := TaxAssessment{AnnualIncome: annualIncome, Withheld: withheld}
	if annualIncome > 0 {
		a.TaxOwed = taxOwed(annualIncome)
	}

	switch net := withheld - a.TaxOwed; {
	case net > 0:
		a.Refund = net
	case net < 0:
		a.BalanceDue = -net
	}
	return a
}

func taxOwed(income int64) int64 {
	var owed float64
	for i, b := range taxBrackets {
		if income <= b.Floor {
			break
		}
		top := income
		if i+1 < len(taxBrackets) && taxBrackets[i+1].Floor < top {
			top = taxBrackets[i+1].Floor
		}
		owed += float64(top-b.Floor) * b.Rate
	}
	return interest.BankersRound(owed)
}

// IsTaxFilingDay reports whether the date is the fixed annual filing day.
func IsTaxFilingDay(date domain.GameDate) bool {
	return date.Month == 4 && date.Day == 15
}
