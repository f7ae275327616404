// Package credit implements the Credit Health Index (CHI).
//
// Five sub-scores, each 0–100:
//   - Payment history: tiered late/missed penalties that decay with age
//   - Utilization: banded used/available ratio
//   - Account age: bucketed average age in months
//   - Credit mix: fixed points per distinct account type
//   - New credit: recent-inquiry buckets
//
// Overall = clamp(round(300 + weightedSum/100 × 550), 300, 850)
// with weights 35/30/15/10/10.
//
// The result is recomputed fresh on every call — no score state lives in
// this package. Degenerate inputs never fail; they map to the defined
// neutral or floor scores.
package credit

import (
	"github.com/pocketwise/pocketwise/internal/domain"
	"github.com/pocketwise/pocketwise/internal/sim/interest"
)

// ─── Constants ──────────────────────────────────────────────────────────────

const (
	// Factor weights (percent; sum to 100).
	WeightPaymentHistory = 35
	WeightUtilization    = 30
	WeightAccountAge     = 15
	WeightCreditMix      = 10
	WeightNewCredit      = 10

	// Composite score bounds.
	ScoreFloor   = 300
	ScoreCeiling = 850
	ScoreRange   = ScoreCeiling - ScoreFloor

	// Penalty decay: half strength after a year, gone after two.
	penaltyHalfAgeMonths = 12
	penaltyGoneAgeMonths = 24
)

// ─── Input / Result ─────────────────────────────────────────────────────────

// LatePayment is a payment made after its due date.
type LatePayment struct {
	DaysLate  int
	MonthsAgo int
}

// MissedPayment is a payment never made.
type MissedPayment struct {
	MonthsAgo int
}

// PaymentHistory aggregates the raw payment record.
type PaymentHistory struct {
	OnTimePayments int
	LatePayments   []LatePayment
	MissedPayments []MissedPayment
	Collections    int
}

// Input aggregates the five raw histories the index is computed from.
type Input struct {
	History           PaymentHistory
	CreditUsed        int64 // cents drawn across revolving accounts
	CreditAvailable   int64 // cents of total credit limit
	HasCreditAccounts bool
	AccountAgesMonths []int
	AccountTypes      []domain.AccountType
	RecentInquiries   int // credit applications in the last 6 months
}

// Factors holds the five sub-scores, each 0–100.
type Factors struct {
	PaymentHistory int `json:"payment_history"`
	Utilization    int `json:"utilization"`
	AccountAge     int `json:"account_age"`
	CreditMix      int `json:"credit_mix"`
	NewCredit      int `json:"new_credit"`
}

// Result is the computed index. Trend is filled by callers that track
// the previous composite.
type Result struct {
	Overall int     `json:"overall"` // 300–850
	Factors Factors `json:"factors"`
	Trend   Trend   `json:"trend,omitempty"`
}

// ─── Calculation ────────────────────────────────────────────────────────────

// Calculate computes the composite Credit Health Index.
func Calculate(in Input) Result {
	f := Factors{
		PaymentHistory: paymentHistoryScore(in.History),
		Utilization:    utilizationScore(in.CreditUsed, in.CreditAvailable, in.HasCreditAccounts),
		AccountAge:     accountAgeScore(in.AccountAgesMonths),
		CreditMix:      creditMixScore(in.AccountTypes),
		NewCredit:      newCreditScore(in.RecentInquiries),
	}

	weighted := float64(f.PaymentHistory*WeightPaymentHistory+
		f.Utilization*WeightUtilization+
		f.AccountAge*WeightAccountAge+
		f.CreditMix*WeightCreditMix+
		f.NewCredit*WeightNewCredit) / 100

	overall := interest.BankersRound(ScoreFloor + weighted/100*ScoreRange)
	if overall < ScoreFloor {
		overall = ScoreFloor
	}
	if overall > ScoreCeiling {
		overall = ScoreCeiling
	}
	return Result{Overall: int(overall), Factors: f}
}

// paymentHistoryScore starts at 100 and applies age-decayed penalties.
func paymentHistoryScore(h PaymentHistory) int {
	score := 100.0

	for _, lp := range h.LatePayments {
		score -= decayPenalty(lateTierPenalty(lp.DaysLate), lp.MonthsAgo)
	}
	for _, mp := range h.MissedPayments {
		score -= decayPenalty(50, mp.MonthsAgo)
	}
	score -= float64(h.Collections) * 75
	score += float64(h.OnTimePayments) * 2

	return clampScore(interest.BankersRound(score))
}

// lateTierPenalty maps days late onto the penalty tiers.
func lateTierPenalty(daysLate int) float64 {
	switch {
	case daysLate <= 30:
		return 10
	case daysLate <= 60:
		return 20
	case daysLate <= 90:
		return 35
	default:
		return 50
	}
}

// decayPenalty halves a penalty at a year old and drops it at two.
func decayPenalty(penalty float64, monthsAgo int) float64 {
	switch {
	case monthsAgo >= penaltyGoneAgeMonths:
		return 0
	case monthsAgo >= penaltyHalfAgeMonths:
		return penalty / 2
	default:
		return penalty
	}
}

// utilizationScore bands the used/available ratio. Exactly-zero
// utilization scoring below light utilization is intentional: the index
// rewards demonstrated, modest use of credit over none at all.
func utilizationScore(used, available int64, hasCreditAccounts bool) int {
	if !hasCreditAccounts || available <= 0 {
		return 50 // neutral: no revolving credit to judge
	}

	ratio := float64(used) / float64(available)
	switch {
	case ratio <= 0:
		return 85
	case ratio < 0.10:
		return 100
	case ratio < 0.30:
		return 90
	case ratio < 0.50:
		return 70
	case ratio < 0.75:
		return 45
	case ratio < 1.00:
		return 20
	default:
		return 0
	}
}

// accountAgeScore buckets the average account age in months.
func accountAgeScore(agesMonths []int) int {
	if len(agesMonths) == 0 {
		return 20
	}
	sum := 0
	for _, a := range agesMonths {
		sum += a
	}
	avg := float64(sum) / float64(len(agesMonths))

	switch {
	case avg <= 3:
		return 20
	case avg <= 6:
		return 35
	case avg <= 12:
		return 50
	case avg <= 24:
		return 65
	case avg <= 36:
		return 75
	case avg <= 60:
		return 85
	default:
		return 100
	}
}

// mixPoints is the fixed credit-mix contribution per account type.
var mixPoints = map[domain.AccountType]int{
	domain.AccountChecking:     10,
	domain.AccountSavings:      10,
	domain.AccountCreditCard:   20,
	domain.AccountStudentLoan:  15,
	domain.AccountAutoLoan:     15,
	domain.AccountMortgage:     20,
	domain.AccountPersonalLoan: 10,
	domain.AccountInvestment:   5,
}

// creditMixScore sums points per distinct account type, capped at 100.
func creditMixScore(types []domain.AccountType) int {
	seen := make(map[domain.AccountType]bool, len(types))
	score := 0
	for _, t := range types {
		if seen[t] {
			continue
		}
		seen[t] = true
		score += mixPoints[t]
	}
	if score > 100 {
		score = 100
	}
	return score
}

// newCreditScore buckets applications in the last 6 months.
func newCreditScore(inquiries int) int {
	switch {
	case inquiries <= 0:
		return 100
	case inquiries == 1:
		return 90
	case inquiries == 2:
		return 75
	case inquiries == 3:
		return 55
	case inquiries == 4:
		return 35
	default:
		return 15
	}
}

func clampScore(v int64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

// ─── Trend ──────────────────────────────────────────────────────────────────

// Trend classifies score movement between two computations.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// DetermineTrend compares the current composite against the previous one.
// Movement within ±5 points is noise, classified stable.
func DetermineTrend(current, previous int) Trend {
	diff := current - previous
	switch {
	case diff > 5:
		return TrendImproving
	case diff < -5:
		return TrendDeclining
	default:
		return TrendStable
	}
}
