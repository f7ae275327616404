// Package interest implements the pure numeric kernel of the simulation:
// interest accrual, loan amortization, and banker's rounding.
//
// Every function takes and returns integer minor units (cents) except for
// rate and day-count parameters, and every rounding routes through
// BankersRound. Degenerate inputs (non-positive balances, zero rates,
// zero terms) are clamped or zeroed to a defined result — this package
// never returns an error, keeping the simulation always able to advance.
package interest

import "math"

// ─── Rounding ───────────────────────────────────────────────────────────────

// halfEpsilon absorbs floating-point representation error when detecting
// an exact ".5" fractional part.
const halfEpsilon = 1e-9

// BankersRound rounds to the nearest integer, with exact halves going to
// the even neighbor. Handles negative and large magnitudes; integers are
// fixed points.
func BankersRound(x float64) int64 {
	floor := math.Floor(x)
	frac := x - floor

	if math.Abs(frac-0.5) < halfEpsilon {
		f := int64(floor)
		if f%2 == 0 {
			return f
		}
		return f + 1
	}
	return int64(math.Round(x))
}

// ─── Rate Conversion ────────────────────────────────────────────────────────

// APYToMonthlyRate converts an annual percentage yield into the
// equivalent compounded monthly rate: (1+apy)^(1/12) − 1.
func APYToMonthlyRate(apy float64) float64 {
	if apy <= 0 {
		return 0
	}
	return math.Pow(1+apy, 1.0/12.0) - 1
}

// ─── Savings & Credit Card ──────────────────────────────────────────────────

// SavingsInterest returns one month of interest on a savings balance at
// the given APY. Zero if the balance or rate is non-positive.
func SavingsInterest(balance int64, apy float64) int64 {
	if balance <= 0 || apy <= 0 {
		return 0
	}
	return BankersRound(float64(balance) * APYToMonthlyRate(apy))
}

// CardDailyInterest returns one day of interest on a credit-card balance
// at the daily periodic rate apr/365.
func CardDailyInterest(balance int64, apr float64) int64 {
	return CardInterestForDays(balance, apr, 1)
}

// CardInterestForDays returns interest accrued over days at apr/365 per day.
func CardInterestForDays(balance int64, apr float64, days int) int64 {
	if balance <= 0 || apr <= 0 || days <= 0 {
		return 0
	}
	return BankersRound(float64(balance) * (apr / 365) * float64(days))
}

// OverdraftInterest returns one month of overdraft interest. The absolute
// value of the balance is charged regardless of the input's sign, so
// callers may pass the (negative) overdrawn balance directly.
func OverdraftInterest(balance int64, apr float64) int64 {
	if balance == 0 || apr <= 0 {
		return 0
	}
	magnitude := balance
	if magnitude < 0 {
		magnitude = -magnitude
	}
	return BankersRound(float64(magnitude) * (apr / 12))
}

// ─── Loans & Amortization ───────────────────────────────────────────────────

// AmortizationPayment returns the fixed monthly payment for a loan using
// the standard annuity formula. With a non-positive rate it degrades to
// straight-line principal/termMonths; with a non-positive principal or
// term it is 0.
func AmortizationPayment(principal int64, annualRate float64, termMonths int) int64 {
	if principal <= 0 || termMonths <= 0 {
		return 0
	}
	if annualRate <= 0 {
		return BankersRound(float64(principal) / float64(termMonths))
	}

	r := annualRate / 12
	growth := math.Pow(1+r, float64(termMonths))
	return BankersRound(float64(principal) * r * growth / (growth - 1))
}

// SplitLoanPayment divides a payment into its interest and principal
// portions against the remaining balance.
func SplitLoanPayment(payment, remaining int64, annualRate float64) (interestPart, principalPart int64) {
	if annualRate > 0 && remaining > 0 {
		interestPart = BankersRound(float64(remaining) * annualRate / 12)
	}
	principalPart = payment - interestPart
	return interestPart, principalPart
}

// ScheduleEntry is one month of an amortization schedule.
type ScheduleEntry struct {
	Month     int   `json:"month"` // 1-based
	Payment   int64 `json:"payment"`
	Interest  int64 `json:"interest"`
	Principal int64 `json:"principal"`
	Remaining int64 `json:"remaining"`
}

// AmortizationSchedule walks a loan month by month. The final month's
// principal portion is forced to the exact remaining balance, eliminating
// residual drift from repeated rounding; remaining never goes below 0.
func AmortizationSchedule(principal int64, annualRate float64, termMonths int) []ScheduleEntry {
	if principal <= 0 || termMonths <= 0 {
		return nil
	}

	payment := AmortizationPayment(principal, annualRate, termMonths)
	schedule := make([]ScheduleEntry, 0, termMonths)
	remaining := principal

	for month := 1; month <= termMonths; month++ {
		interestPart, principalPart := SplitLoanPayment(payment, remaining, annualRate)

		if month == termMonths || principalPart > remaining {
			principalPart = remaining
		}
		monthPayment := principalPart + interestPart

		remaining -= principalPart
		if remaining < 0 {
			remaining = 0
		}

		schedule = append(schedule, ScheduleEntry{
			Month:     month,
			Payment:   monthPayment,
			Interest:  interestPart,
			Principal: principalPart,
			Remaining: remaining,
		})
	}
	return schedule
}

// ─── Textbook Interest ──────────────────────────────────────────────────────

// CompoundInterest returns the interest earned on principal at annualRate
// compounded compoundsPerYear times per year over years.
func CompoundInterest(principal int64, annualRate float64, years float64, compoundsPerYear int) int64 {
	if principal <= 0 || annualRate <= 0 || years <= 0 || compoundsPerYear <= 0 {
		return 0
	}
	n := float64(compoundsPerYear)
	amount := float64(principal) * math.Pow(1+annualRate/n, n*years)
	return BankersRound(amount - float64(principal))
}

// SimpleInterest returns principal × rate × years, rounded.
func SimpleInterest(principal int64, annualRate float64, years float64) int64 {
	if principal <= 0 || annualRate <= 0 || years <= 0 {
		return 0
	}
	return BankersRound(float64(principal) * annualRate * years)
}

// ─── Minimum Payment ────────────────────────────────────────────────────────

// MinimumPayment returns the minimum due on a revolving balance: the full
// balance when at or under the floor, otherwise the larger of the floor
// and percent of the balance. Zero for non-positive balances.
func MinimumPayment(balance int64, percent float64, floor int64) int64 {
	if balance <= 0 {
		return 0
	}
	if balance <= floor {
		return balance
	}
	pct := BankersRound(float64(balance) * percent)
	if pct < floor {
		return floor
	}
	return pct
}
