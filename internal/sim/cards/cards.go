// Package cards turns static scenario templates into live, priced
// decision cards and applies a chosen option's consequences.
//
// Cards are transient: created on trigger with a fixed three-day expiry,
// discarded by the orchestrator on resolution or expiry. Resolution
// performs no solvency check — going negative on a bad decision is part
// of the lesson.
package cards

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pocketwise/pocketwise/internal/domain"
	"github.com/pocketwise/pocketwise/internal/sim/rng"
)

// CardLifetimeDays is how long a generated card stays resolvable.
const CardLifetimeDays = 3

// ─── Templates ──────────────────────────────────────────────────────────────

// OptionTemplate is one choice on a scenario template. Cost is fixed
// unless CostMax > CostMin, in which case the live cost is drawn
// uniformly from [CostMin, CostMax].
type OptionTemplate struct {
	ID      string `toml:"id"`
	Label   string `toml:"label"`
	Cost    int64  `toml:"cost"`
	CostMin int64  `toml:"cost_min"`
	CostMax int64  `toml:"cost_max"`
	XP      int    `toml:"xp"`
	Coins   int64  `toml:"coins"`
}

// ScenarioTemplate is a catalog entry a card can be generated from.
type ScenarioTemplate struct {
	ID          string            `toml:"id"`
	Category    string            `toml:"category"`
	Title       string            `toml:"title"`
	Description string            `toml:"description"`
	Stake       domain.StakeLevel `toml:"stake"`
	Personas    []domain.Persona  `toml:"personas"` // empty = all personas
	MinLevel    int               `toml:"min_level"`
	MaxLevel    int               `toml:"max_level"` // 0 = no upper bound
	Weight      float64           `toml:"weight"`    // base frequency weight
	Options     []OptionTemplate  `toml:"options"`
}

// matches reports whether the template is available to a persona/level.
func (t ScenarioTemplate) matches(persona domain.Persona, level int) bool {
	if level < t.MinLevel {
		return false
	}
	if t.MaxLevel > 0 && level > t.MaxLevel {
		return false
	}
	if len(t.Personas) == 0 {
		return true
	}
	for _, p := range t.Personas {
		if p == persona {
			return true
		}
	}
	return false
}

// ─── Daily Selection ────────────────────────────────────────────────────────

// Category-staleness boosts keep the card mix rotating.
const (
	staleBoostDays    = 14
	staleBoost        = 2.0
	agingBoostDays    = 7
	agingBoost        = 1.5
	defaultBaseWeight = 1.0
)

// SelectionFilter narrows the catalog for one player's daily draw.
type SelectionFilter struct {
	Persona domain.Persona
	Level   int

	// ExcludeIDs lists recently shown template IDs to skip.
	ExcludeIDs []string

	// CategoryLastSeenDays maps category → days since last shown.
	// Categories absent from the map have never been shown and get the
	// full staleness boost.
	CategoryLastSeenDays map[string]int
}

// SelectDailyScenarios filters the catalog to eligible templates, weights
// them by base frequency with staleness boosts, and samples
// min(numCards, eligible) templates without replacement. The same seed
// with the same filter reproduces the same selection.
func SelectDailyScenarios(r *rng.RNG, catalog []ScenarioTemplate, filter SelectionFilter, numCards int) []ScenarioTemplate {
	excluded := make(map[string]bool, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}

	var eligible []ScenarioTemplate
	var weights []float64
	for _, t := range catalog {
		if excluded[t.ID] || !t.matches(filter.Persona, filter.Level) {
			continue
		}
		eligible = append(eligible, t)
		weights = append(weights, selectionWeight(t, filter.CategoryLastSeenDays))
	}
	if len(eligible) == 0 {
		return nil
	}

	count := numCards
	if count > len(eligible) {
		count = len(eligible)
	}
	return rng.WeightedSample(r, eligible, weights, count)
}

// selectionWeight applies staleness boosts to a template's base weight.
func selectionWeight(t ScenarioTemplate, lastSeenDays map[string]int) float64 {
	w := t.Weight
	if w <= 0 {
		w = defaultBaseWeight
	}

	days, seen := lastSeenDays[t.Category]
	switch {
	case !seen || days > staleBoostDays:
		w *= staleBoost
	case days > agingBoostDays:
		w *= agingBoost
	}
	return w
}

// ─── Live Cards ─────────────────────────────────────────────────────────────

// ConsequenceKind classifies what resolving an option does.
type ConsequenceKind string

// ConsequenceBalanceChange adjusts the checking account balance.
const ConsequenceBalanceChange ConsequenceKind = "balance_change"

// Consequence is one effect of choosing a card option.
type Consequence struct {
	Kind      ConsequenceKind `json:"kind"`
	Amount    int64           `json:"amount"` // signed cents; negative for a cost
	Narrative string          `json:"narrative"`
}

// CardOption is a live, priced choice on a decision card.
type CardOption struct {
	ID           string        `json:"id"`
	Label        string        `json:"label"`
	Cost         int64         `json:"cost"`
	Consequences []Consequence `json:"consequences"`
	XP           int           `json:"xp"`
	Coins        int64         `json:"coins"`
}

// DecisionCard is a live card awaiting the player's decision.
type DecisionCard struct {
	ID          string            `json:"id"`
	TemplateID  string            `json:"template_id"`
	Category    string            `json:"category"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Stake       domain.StakeLevel `json:"stake"`
	ExpiresAt   domain.GameDate   `json:"expires_at"`
	Options     []CardOption      `json:"options"`
	IsBonus     bool              `json:"is_bonus"`
}

// GenerateCard expands a template into a live card. Option costs within a
// variance range are priced with the supplied RNG, so generation is part
// of the deterministic draw order.
func GenerateCard(t ScenarioTemplate, currentDate domain.GameDate, r *rng.RNG, isBonus bool) DecisionCard {
	card := DecisionCard{
		ID:          uuid.NewString(),
		TemplateID:  t.ID,
		Category:    t.Category,
		Title:       t.Title,
		Description: t.Description,
		Stake:       t.Stake,
		ExpiresAt:   currentDate.AddDays(CardLifetimeDays),
		IsBonus:     isBonus,
	}

	for _, opt := range t.Options {
		cost := opt.Cost
		if opt.CostMax > opt.CostMin {
			cost = r.Int64Between(opt.CostMin, opt.CostMax)
		}

		card.Options = append(card.Options, CardOption{
			ID:    opt.ID,
			Label: opt.Label,
			Cost:  cost,
			Consequences: []Consequence{{
				Kind:      ConsequenceBalanceChange,
				Amount:    -cost,
				Narrative: fmt.Sprintf("%s — %s", t.Title, opt.Label),
			}},
			XP:    opt.XP,
			Coins: opt.Coins,
		})
	}
	return card
}

// ─── Resolution ─────────────────────────────────────────────────────────────

// Resolution records the outcome of a card decision.
type Resolution struct {
	GameID  string           `json:"game_id"`
	Date    domain.GameDate  `json:"date"`
	Option  CardOption       `json:"option"`
	Deltas  map[string]int64 `json:"deltas"` // net balance change per account
}

// ResolveCard applies the chosen option's balance-change consequences
// directly to the checking account — no solvency check, overdraft
// allowed. Fails with CARD_NOT_FOUND when optionID is not on the card.
func ResolveCard(card DecisionCard, optionID string, store domain.AccountStore, checkingAccountID, gameID string, date domain.GameDate) (Resolution, error) {
	var chosen *CardOption
	for i := range card.Options {
		if card.Options[i].ID == optionID {
			chosen = &card.Options[i]
			break
		}
	}
	if chosen == nil {
		return Resolution{}, domain.Errorf(domain.CodeCardNotFound,
			"card %s has no option %q", card.ID, optionID)
	}

	deltas := make(map[string]int64)
	for _, c := range chosen.Consequences {
		if c.Kind != ConsequenceBalanceChange {
			continue
		}
		if _, err := store.Apply([]domain.LedgerEntry{
			{AccountID: checkingAccountID, Amount: c.Amount},
		}); err != nil {
			return Resolution{}, fmt.Errorf("apply consequence: %w", err)
		}
		deltas[checkingAccountID] += c.Amount
	}

	return Resolution{GameID: gameID, Date: date, Option: *chosen, Deltas: deltas}, nil
}

// ─── Daily Card Count & Rewards ─────────────────────────────────────────────

// LevelConfig is the per-level card cadence supplied by the configuration
// collaborator.
type LevelConfig struct {
	MinCards        int     `toml:"min_cards"`
	MaxCards        int     `toml:"max_cards"`
	BonusCardChance float64 `toml:"bonus_card_chance"`
}

// CardsPerDay returns the number of cards to deal today: the level
// minimum, plus one bonus card with the configured probability — but only
// when the level has headroom (max > min).
func CardsPerDay(cfg LevelConfig, r *rng.RNG) int {
	n := cfg.MinCards
	if cfg.MaxCards > cfg.MinCards && r.Float64() < cfg.BonusCardChance {
		n++
	}
	return n
}

// Rewards is the XP and coin payout for a resolved option.
type Rewards struct {
	XP    int   `json:"xp"`
	Coins int64 `json:"coins"`
}

// CardRewards scales an option's XP by the persona, streak, and
// difficulty modifiers. The coin reward is never modified.
func CardRewards(option CardOption, personaMod, streakMod, difficultyMod float64) Rewards {
	xp := float64(option.XP) * personaMod * streakMod * difficultyMod
	return Rewards{
		XP:    int(xp + 0.5), // conventional half-up rounding, XP is never negative
		Coins: option.Coins,
	}
}
