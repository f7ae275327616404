// Package catalog supplies the static game data the simulation consumes:
// scenario templates for the decision-card engine and per-level card
// cadence. Defaults are compiled in; a TOML file can override either
// section wholesale.
package catalog

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/pocketwise/pocketwise/internal/domain"
	"github.com/pocketwise/pocketwise/internal/sim/cards"
)

// Config bundles everything the orchestrator needs from static data.
type Config struct {
	Scenarios []cards.ScenarioTemplate `toml:"scenarios"`
	Levels    []LevelBand              `toml:"levels"`
}

// LevelBand applies a card cadence to all levels at or above MinLevel,
// until the next band takes over. Bands must be sorted ascending.
type LevelBand struct {
	MinLevel int               `toml:"min_level"`
	Cards    cards.LevelConfig `toml:"cards"`
}

// LevelConfigFor returns the cadence for a level: the last band whose
// MinLevel the level reaches, or the first band for anything below.
func (c Config) LevelConfigFor(level int) cards.LevelConfig {
	if len(c.Levels) == 0 {
		return cards.LevelConfig{MinCards: 1, MaxCards: 1}
	}
	cfg := c.Levels[0].Cards
	for _, band := range c.Levels {
		if level < band.MinLevel {
			break
		}
		cfg = band.Cards
	}
	return cfg
}

// ScenarioByID returns the template with the given ID, or nil.
func (c Config) ScenarioByID(id string) *cards.ScenarioTemplate {
	for i := range c.Scenarios {
		if c.Scenarios[i].ID == id {
			return &c.Scenarios[i]
		}
	}
	return nil
}

// Load reads a TOML override file on top of the compiled-in defaults.
// A section present in the file replaces the default section entirely;
// an absent section keeps the defaults.
func Load(path string) (Config, error) {
	var override Config
	if _, err := toml.DecodeFile(path, &override); err != nil {
		return Config{}, fmt.Errorf("load catalog %s: %w", path, err)
	}

	cfg := Default()
	if len(override.Scenarios) > 0 {
		cfg.Scenarios = override.Scenarios
	}
	if len(override.Levels) > 0 {
		cfg.Levels = override.Levels
	}
	return cfg, nil
}

// ─── Defaults ───────────────────────────────────────────────────────────────

// Default returns the compiled-in catalog. The scenario set covers every
// persona so that no player can face an empty daily draw.
func Default() Config {
	return Config{
		Scenarios: defaultScenarios(),
		Levels: []LevelBand{
			{MinLevel: 1, Cards: cards.LevelConfig{MinCards: 1, MaxCards: 2, BonusCardChance: 0.10}},
			{MinLevel: 3, Cards: cards.LevelConfig{MinCards: 2, MaxCards: 3, BonusCardChance: 0.15}},
			{MinLevel: 6, Cards: cards.LevelConfig{MinCards: 2, MaxCards: 4, BonusCardChance: 0.20}},
			{MinLevel: 9, Cards: cards.LevelConfig{MinCards: 3, MaxCards: 5, BonusCardChance: 0.25}},
		},
	}
}

func defaultScenarios() []cards.ScenarioTemplate {
	teens := []domain.Persona{domain.PersonaTeen}
	students := []domain.Persona{domain.PersonaTeen, domain.PersonaStudent}
	adults := []domain.Persona{domain.PersonaYoungAdult, domain.PersonaParent}

	return []cards.ScenarioTemplate{
		{
			ID: "sneaker-drop", Category: "wants", Title: "Limited Sneaker Drop",
			Description: "The pair everyone at school wants just dropped.",
			Stake:       domain.StakeMedium, Personas: teens, Weight: 3,
			Options: []cards.OptionTemplate{
				{ID: "buy", Label: "Buy them now", Cost: 14_000, XP: 5, Coins: 2},
				{ID: "save", Label: "Keep saving", Cost: 0, XP: 20, Coins: 12},
				{ID: "used", Label: "Find a used pair", Cost: 6_000, XP: 15, Coins: 8},
			},
		},
		{
			ID: "streaming-sub", Category: "wants", Title: "Another Streaming Service",
			Description: "Your friends are all watching a show you can't.",
			Stake:       domain.StakeLow, Weight: 5,
			Options: []cards.OptionTemplate{
				{ID: "subscribe", Label: "Subscribe monthly", Cost: 1_500, XP: 5, Coins: 2},
				{ID: "share", Label: "Split with a friend", Cost: 750, XP: 15, Coins: 8},
				{ID: "skip", Label: "Wait for it elsewhere", Cost: 0, XP: 20, Coins: 10},
			},
		},
		{
			ID: "textbook-buy", Category: "education", Title: "Required Textbook",
			Description: "The syllabus lists a pricey required text.",
			Stake:       domain.StakeMedium, Personas: students, Weight: 4,
			Options: []cards.OptionTemplate{
				{ID: "new", Label: "Buy new", Cost: 22_000, XP: 5, Coins: 2},
				{ID: "rent", Label: "Rent for the term", Cost: 7_500, XP: 18, Coins: 10},
				{ID: "library", Label: "Use the library copy", Cost: 0, XP: 15, Coins: 8},
			},
		},
		{
			ID: "spring-trip", Category: "social", Title: "Spring Break Trip",
			Description: "Your friend group is planning a beach week.",
			Stake:       domain.StakeHigh, Personas: students, MinLevel: 3, Weight: 2,
			Options: []cards.OptionTemplate{
				{ID: "go", Label: "Go all in", CostMin: 40_000, CostMax: 80_000, XP: 5, Coins: 3},
				{ID: "budget", Label: "Go on a budget", CostMin: 15_000, CostMax: 30_000, XP: 18, Coins: 10},
				{ID: "stay", Label: "Sit this one out", Cost: 0, XP: 12, Coins: 8},
			},
		},
		{
			ID: "laptop-upgrade", Category: "needs", Title: "Aging Laptop",
			Description: "Your laptop takes five minutes to boot.",
			Stake:       domain.StakeHigh, MinLevel: 2, Weight: 2,
			Options: []cards.OptionTemplate{
				{ID: "new", Label: "Buy a new one", CostMin: 60_000, CostMax: 120_000, XP: 8, Coins: 4},
				{ID: "refurb", Label: "Buy refurbished", CostMin: 25_000, CostMax: 45_000, XP: 18, Coins: 10},
				{ID: "repair", Label: "Replace the drive", Cost: 9_000, XP: 15, Coins: 8},
			},
		},
		{
			ID: "gym-membership", Category: "health", Title: "Gym Membership Deal",
			Description: "A new gym is offering a discounted annual plan.",
			Stake:       domain.StakeLow, Weight: 4,
			Options: []cards.OptionTemplate{
				{ID: "annual", Label: "Pay the year upfront", Cost: 36_000, XP: 12, Coins: 6},
				{ID: "monthly", Label: "Go month to month", Cost: 4_500, XP: 10, Coins: 5},
				{ID: "outside", Label: "Run outside for free", Cost: 0, XP: 18, Coins: 10},
			},
		},
		{
			ID: "car-insurance-shop", Category: "insurance", Title: "Insurance Renewal",
			Description: "Your auto premium jumped at renewal.",
			Stake:       domain.StakeMedium, Personas: adults, MinLevel: 3, Weight: 3,
			Options: []cards.OptionTemplate{
				{ID: "renew", Label: "Renew as is", Cost: 18_000, XP: 5, Coins: 2},
				{ID: "shop", Label: "Shop three quotes", Cost: 13_500, XP: 20, Coins: 12},
				{ID: "raise-deductible", Label: "Raise the deductible", Cost: 11_000, XP: 15, Coins: 8},
			},
		},
		{
			ID: "side-gig", Category: "career", Title: "Weekend Side Gig",
			Description: "A neighbor offers steady weekend work.",
			Stake:       domain.StakeMedium, Personas: adults, Weight: 3,
			Options: []cards.OptionTemplate{
				{ID: "take", Label: "Take the gig", Cost: 0, XP: 20, Coins: 15},
				{ID: "decline", Label: "Protect your weekends", Cost: 0, XP: 8, Coins: 4},
			},
		},
		{
			ID: "kid-field-trip", Category: "family", Title: "School Field Trip",
			Description: "Your kid brought home a permission slip and a fee.",
			Stake:       domain.StakeLow, Personas: []domain.Persona{domain.PersonaParent}, Weight: 4,
			Options: []cards.OptionTemplate{
				{ID: "pay", Label: "Pay the fee", Cost: 4_500, XP: 12, Coins: 6},
				{ID: "chaperone", Label: "Chaperone instead", Cost: 1_500, XP: 18, Coins: 10},
			},
		},
		{
			ID: "emergency-fund", Category: "savings", Title: "Automate Savings",
			Description: "Your bank offers an automatic transfer to savings.",
			Stake:       domain.StakeLow, MinLevel: 2, Weight: 4,
			Options: []cards.OptionTemplate{
				{ID: "auto-10", Label: "Auto-save 10% of income", Cost: 0, XP: 25, Coins: 15},
				{ID: "auto-5", Label: "Auto-save 5% of income", Cost: 0, XP: 18, Coins: 10},
				{ID: "later", Label: "Set it up later", Cost: 0, XP: 2, Coins: 0},
			},
		},
		{
			ID: "credit-card-offer", Category: "credit", Title: "Pre-Approved Card Offer",
			Description: "A shiny card offer with a signup bonus arrived.",
			Stake:       domain.StakeMedium, MinLevel: 4, Weight: 3,
			Options: []cards.OptionTemplate{
				{ID: "accept", Label: "Accept the card", Cost: 0, XP: 8, Coins: 4},
				{ID: "shred", Label: "Shred the offer", Cost: 0, XP: 15, Coins: 8},
			},
		},
		{
			ID: "invest-windfall", Category: "investing", Title: "Small Windfall",
			Description: "A rebate check landed in your account.",
			Stake:       domain.StakeMedium, MinLevel: 5, Weight: 2,
			Options: []cards.OptionTemplate{
				{ID: "index", Label: "Put it in an index fund", Cost: 0, XP: 22, Coins: 12},
				{ID: "spend", Label: "Treat yourself", Cost: 0, XP: 5, Coins: 2},
				{ID: "savings", Label: "Park it in savings", Cost: 0, XP: 15, Coins: 8},
			},
		},
	}
}
