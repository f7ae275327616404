// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
//
// All currency values are int64 in minor units (cents), end to end.
package domain

import (
	"fmt"
	"time"
)

// ─── Game Calendar ──────────────────────────────────────────────────────────

// GameDate is a plain civil date inside the simulated world.
// It carries no timezone; day arithmetic is pure calendar math.
type GameDate struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1–12
	Day   int `json:"day"`   // 1–31
}

// NewGameDate builds a GameDate, normalizing out-of-range components
// (e.g. month 13 rolls into the next year).
func NewGameDate(year, month, day int) GameDate {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return GameDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// AddDays returns the date n days later (n may be negative).
func (d GameDate) AddDays(n int) GameDate {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	t = t.AddDate(0, 0, n)
	return GameDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Before reports whether d is strictly earlier than other.
func (d GameDate) Before(other GameDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// DaysUntil returns the number of calendar days from d to other
// (negative if other is earlier).
func (d GameDate) DaysUntil(other GameDate) int {
	a := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	b := time.Date(other.Year, time.Month(other.Month), other.Day, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// String formats the date as YYYY-MM-DD.
func (d GameDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ─── Player Enumerations ────────────────────────────────────────────────────

// Persona is the player archetype gating available content.
type Persona string

const (
	PersonaTeen       Persona = "teen"
	PersonaStudent    Persona = "student"
	PersonaYoungAdult Persona = "young_adult"
	PersonaParent     Persona = "parent"
)

// Difficulty scales event probabilities and insurance premiums.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// Multiplier returns the difficulty scaling factor.
// Negative events scale by the multiplier directly; positive events
// scale by (2 − multiplier), so easy mode favors good luck.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case DifficultyEasy:
		return 0.8
	case DifficultyHard:
		return 1.2
	default:
		return 1.0
	}
}

// StakeLevel is the risk tier shown on a decision card.
type StakeLevel string

const (
	StakeLow      StakeLevel = "low"
	StakeMedium   StakeLevel = "medium"
	StakeHigh     StakeLevel = "high"
	StakeCritical StakeLevel = "critical"
)

// AccountType classifies a player account for credit-mix scoring.
type AccountType string

const (
	AccountChecking     AccountType = "checking"
	AccountSavings      AccountType = "savings"
	AccountCreditCard   AccountType = "credit_card"
	AccountStudentLoan  AccountType = "student_loan"
	AccountAutoLoan     AccountType = "auto_loan"
	AccountMortgage     AccountType = "mortgage"
	AccountPersonalLoan AccountType = "personal_loan"
	AccountInvestment   AccountType = "investment"
)

// ─── Tagged Amounts ─────────────────────────────────────────────────────────

// AmountKind disambiguates what a triggered event's amount means.
// Most events carry cents; a few carry a percentage resolved downstream
// by the caller against the relevant balance.
type AmountKind string

const (
	AmountCurrency AmountKind = "currency" // Value is cents
	AmountPercent  AmountKind = "percent"  // Value is basis points (1/100 of a percent)
)

// EventAmount is the tagged union for event payouts.
type EventAmount struct {
	Kind  AmountKind `json:"kind"`
	Value int64      `json:"value"`
}

// Currency wraps a cent amount.
func Currency(cents int64) EventAmount {
	return EventAmount{Kind: AmountCurrency, Value: cents}
}

// Percent wraps a basis-point amount.
func Percent(basisPoints int64) EventAmount {
	return EventAmount{Kind: AmountPercent, Value: basisPoints}
}
