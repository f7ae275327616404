// Package invest simulates monthly investment returns and dividends for
// the four asset classes a player can hold.
//
// Returns are drawn from a clamped normal distribution per asset class.
// The clamp window is fixed at ±30% per month regardless of the
// difficulty volatility multiplier — volatility widens the spread, never
// the worst case. Holdings are mutated in place monthly; they are created
// on purchase and removed only by caller action.
package invest

import (
	"github.com/pocketwise/pocketwise/internal/domain"
	"github.com/pocketwise/pocketwise/internal/sim/interest"
	"github.com/pocketwise/pocketwise/internal/sim/rng"
)

// ─── Asset Classes ──────────────────────────────────────────────────────────

// AssetKind is the closed set of simulated asset classes.
type AssetKind string

const (
	AssetIndexFund AssetKind = "index_fund"
	AssetBond      AssetKind = "bond"
	AssetStock     AssetKind = "stock"
	AssetCrypto    AssetKind = "crypto"
)

// Config is the static per-asset-class return model.
type Config struct {
	MeanMonthlyReturn   float64
	StddevMonthlyReturn float64
	AnnualDividendYield float64
}

// configs is the immutable asset model table.
var configs = map[AssetKind]Config{
	AssetIndexFund: {MeanMonthlyReturn: 0.007, StddevMonthlyReturn: 0.035, AnnualDividendYield: 0.018},
	AssetBond:      {MeanMonthlyReturn: 0.003, StddevMonthlyReturn: 0.015, AnnualDividendYield: 0.032},
	AssetStock:     {MeanMonthlyReturn: 0.009, StddevMonthlyReturn: 0.075, AnnualDividendYield: 0.012},
	AssetCrypto:    {MeanMonthlyReturn: 0.015, StddevMonthlyReturn: 0.220, AnnualDividendYield: 0},
}

// ConfigFor returns the return model for an asset class. Unknown kinds
// get the zero model (no movement, no yield).
func ConfigFor(kind AssetKind) Config {
	return configs[kind]
}

// Monthly return clamp window, fixed regardless of volatility multiplier.
const (
	returnClampMin = -0.30
	returnClampMax = 0.30
)

// ─── Holdings ───────────────────────────────────────────────────────────────

// Holding is one asset position. Value is cents.
type Holding struct {
	Kind         AssetKind       `json:"kind"`
	Value        int64           `json:"value"`
	PurchaseDate domain.GameDate `json:"purchase_date"`
	DRIPEnabled  bool            `json:"drip_enabled"`
}

// ─── Simulation ─────────────────────────────────────────────────────────────

// SimulateMonthlyReturn draws one month's return for an asset class.
// The volatility multiplier scales the spread only; the result is always
// within [−30%, +30%].
func SimulateMonthlyReturn(r *rng.RNG, kind AssetKind, volatilityMultiplier float64) float64 {
	cfg := ConfigFor(kind)
	return r.Normal(cfg.MeanMonthlyReturn, cfg.StddevMonthlyReturn*volatilityMultiplier,
		returnClampMin, returnClampMax)
}

// ApplyMonthlyReturn grows (or shrinks) a value by a return, floored at
// one cent — a holding never reaches zero or goes negative.
func ApplyMonthlyReturn(value int64, monthlyReturn float64) int64 {
	v := interest.BankersRound(float64(value) * (1 + monthlyReturn))
	if v < 1 {
		return 1
	}
	return v
}

// QuarterlyDividend returns one quarter's dividend on a holding value.
// Always 0 for zero-yield classes.
func QuarterlyDividend(value int64, kind AssetKind) int64 {
	cfg := ConfigFor(kind)
	if value <= 0 || cfg.AnnualDividendYield <= 0 {
		return 0
	}
	return interest.BankersRound(float64(value) * cfg.AnnualDividendYield / 4)
}

// SimulatePortfolioMonth applies one month of returns to every holding in
// place. At quarter end each holding's dividend is computed: DRIP-enabled
// holdings fold it directly into their value (never reported as cash);
// the rest accumulate into the returned cash payout.
func SimulatePortfolioMonth(r *rng.RNG, holdings []Holding, isQuarterEnd bool, volatilityMultiplier float64) int64 {
	var cashDividends int64

	for i := range holdings {
		ret := SimulateMonthlyReturn(r, holdings[i].Kind, volatilityMultiplier)
		holdings[i].Value = ApplyMonthlyReturn(holdings[i].Value, ret)

		if !isQuarterEnd {
			continue
		}
		dividend := QuarterlyDividend(holdings[i].Value, holdings[i].Kind)
		if dividend == 0 {
			continue
		}
		if holdings[i].DRIPEnabled {
			holdings[i].Value += dividend
		} else {
			cashDividends += dividend
		}
	}
	return cashDividends
}

// ─── Aggregates ─────────────────────────────────────────────────────────────

// TotalValue sums all holding values.
func TotalValue(holdings []Holding) int64 {
	var total int64
	for _, h := range holdings {
		total += h.Value
	}
	return total
}

// UniqueAssetKinds counts distinct asset classes held.
func UniqueAssetKinds(holdings []Holding) int {
	seen := make(map[AssetKind]bool, len(holdings))
	for _, h := range holdings {
		seen[h.Kind] = true
	}
	return len(seen)
}
