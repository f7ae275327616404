// Package simulator is the reference orchestrator: it owns per-game
// state and drives the simulation components once per logical day.
//
// Each tick derives its RNG seed from (game ID, day counter), never from
// wall-clock time, so replaying a game from the same starting state
// reproduces every draw. Ticks for the same simulator are serialized by
// a mutex; components themselves hold no shared state.
package simulator

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pocketwise/pocketwise/internal/domain"
	"github.com/pocketwise/pocketwise/internal/infra/catalog"
	"github.com/pocketwise/pocketwise/internal/infra/observability"
	"github.com/pocketwise/pocketwise/internal/sim/cards"
	"github.com/pocketwise/pocketwise/internal/sim/credit"
	"github.com/pocketwise/pocketwise/internal/sim/events"
	"github.com/pocketwise/pocketwise/internal/sim/interest"
	"github.com/pocketwise/pocketwise/internal/sim/invest"
	"github.com/pocketwise/pocketwise/internal/sim/ledger"
	"github.com/pocketwise/pocketwise/internal/sim/rng"
)

// withholdingRate is the share of income withheld against the annual
// tax assessment.
const withholdingRate = 0.15

// recentScenarioWindow is how many recently dealt templates are
// excluded from the daily draw.
const recentScenarioWindow = 6

// ─── Game State ─────────────────────────────────────────────────────────────

// GameState is the authoritative per-game state the simulator owns.
type GameState struct {
	GameID     string
	Persona    domain.Persona
	Difficulty domain.Difficulty
	Level      int

	Date       domain.GameDate
	DayCounter int

	CheckingAccountID string
	SavingsAccountID  string
	ExternalAccountID string

	MonthlyIncome int64
	SavingsAPY    float64

	Holdings []invest.Holding
	Credit   credit.Input

	// card rotation state
	PendingCards     map[string]cards.DecisionCard
	recentScenarios  []string
	categoryLastSeen map[string]int

	// bankruptcy tracking
	consecutiveNegativeMonths int
	monthsPositive            int
	bankruptcyActive          bool

	// tax year accumulators
	annualIncome   int64
	annualWithheld int64

	previousCreditScore int
}

// NewGameState creates a game starting at the given date. Account IDs
// are derived from the game ID.
func NewGameState(gameID string, persona domain.Persona, difficulty domain.Difficulty, start domain.GameDate, monthlyIncome int64) *GameState {
	return &GameState{
		GameID:            gameID,
		Persona:           persona,
		Difficulty:        difficulty,
		Level:             1,
		Date:              start,
		CheckingAccountID: gameID + ":checking",
		SavingsAccountID:  gameID + ":savings",
		ExternalAccountID: gameID + ":external",
		MonthlyIncome:     monthlyIncome,
		SavingsAPY:        0.025,
		PendingCards:      make(map[string]cards.DecisionCard),
		categoryLastSeen:  make(map[string]int),
	}
}

// Seed returns the deterministic RNG seed for the current tick.
func (g *GameState) Seed() string {
	return fmt.Sprintf("%s-%d", g.GameID, g.DayCounter)
}

// ─── Simulator ──────────────────────────────────────────────────────────────

// Journal persists transactions beyond the balance store. Optional.
type Journal interface {
	RecordTransaction(domain.Transaction) error
}

// Simulator drives all games sharing one account store.
type Simulator struct {
	mu      sync.Mutex
	store   domain.AccountStore
	journal Journal
	catalog catalog.Config
	tickLog *observability.TickLog
	log     *logrus.Logger
	games   map[string]*GameState
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithJournal persists every created transaction to a journal.
func WithJournal(j Journal) Option {
	return func(s *Simulator) { s.journal = j }
}

// WithLogger replaces the default logger.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Simulator) { s.log = log }
}

// New creates a simulator over a store and catalog.
func New(store domain.AccountStore, cat catalog.Config, opts ...Option) *Simulator {
	s := &Simulator{
		store:   store,
		catalog: cat,
		tickLog: observability.NewTickLog(0),
		log:     logrus.New(),
		games:   make(map[string]*GameState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddGame registers a game. Replaces any game with the same ID.
func (s *Simulator) AddGame(g *GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.GameID] = g
}

// Game returns a registered game's state, or nil.
func (s *Simulator) Game(gameID string) *GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.games[gameID]
}

// TickLog returns the simulator's tick history.
func (s *Simulator) TickLog() *observability.TickLog {
	return s.tickLog
}

// ─── Tick ───────────────────────────────────────────────────────────────────

// TickResult is everything one simulated day produced.
type TickResult struct {
	GameID       string                       `json:"game_id"`
	Date         domain.GameDate              `json:"date"`
	Seed         string                       `json:"seed"`
	NewCards     []cards.DecisionCard         `json:"new_cards,omitempty"`
	Events       []events.TriggeredEvent      `json:"events,omitempty"`
	Transactions []domain.Transaction         `json:"transactions,omitempty"`
	Credit       *credit.Result               `json:"credit,omitempty"`
	Bankruptcy   *events.BankruptcyAssessment `json:"bankruptcy,omitempty"`
	Tax          *events.TaxAssessment        `json:"tax,omitempty"`
}

// Tick advances one game by a single day: deal cards, roll life events,
// and on month boundaries apply income, interest, investment returns,
// and the credit recomputation. The game's date and day counter advance
// at the end.
func (s *Simulator) Tick(gameID string) (TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return TickResult{}, fmt.Errorf("tick: unknown game %q", gameID)
	}

	seed := g.Seed()
	r := rng.New(seed)
	res := TickResult{GameID: gameID, Date: g.Date, Seed: seed}

	monthEnd := isMonthEnd(g.Date)
	quarterEnd := monthEnd && g.Date.Month%3 == 0

	s.dealCards(g, r, &res)
	if err := s.rollEvents(g, r, monthEnd, quarterEnd, &res); err != nil {
		return res, err
	}
	if monthEnd {
		if err := s.closeMonth(g, r, quarterEnd, &res); err != nil {
			return res, err
		}
	}
	if events.IsTaxFilingDay(g.Date) {
		if err := s.fileTaxes(g, &res); err != nil {
			return res, err
		}
	}

	g.Date = g.Date.AddDays(1)
	g.DayCounter++

	observability.TicksProcessed.WithLabelValues(gameID).Inc()
	s.tickLog.Record(observability.TickRecord{
		GameID:       gameID,
		Date:         res.Date.String(),
		Seed:         seed,
		Transactions: len(res.Transactions),
		CardsDealt:   len(res.NewCards),
		Events:       len(res.Events),
	})
	s.log.WithFields(logrus.Fields{
		"game":   gameID,
		"date":   res.Date.String(),
		"seed":   seed,
		"cards":  len(res.NewCards),
		"events": len(res.Events),
		"txns":   len(res.Transactions),
	}).Debug("tick complete")

	return res, nil
}

// dealCards draws today's decision cards and tracks rotation state.
func (s *Simulator) dealCards(g *GameState, r *rng.RNG, res *TickResult) {
	for cat := range g.categoryLastSeen {
		g.categoryLastSeen[cat]++
	}

	levelCfg := s.catalog.LevelConfigFor(g.Level)
	count := cards.CardsPerDay(levelCfg, r)
	isBonus := count > levelCfg.MinCards

	selected := cards.SelectDailyScenarios(r, s.catalog.Scenarios, cards.SelectionFilter{
		Persona:              g.Persona,
		Level:                g.Level,
		ExcludeIDs:           g.recentScenarios,
		CategoryLastSeenDays: g.categoryLastSeen,
	}, count)

	for i, tmpl := range selected {
		card := cards.GenerateCard(tmpl, g.Date, r, isBonus && i == len(selected)-1)
		g.PendingCards[card.ID] = card
		res.NewCards = append(res.NewCards, card)

		g.categoryLastSeen[tmpl.Category] = 0
		g.recentScenarios = append(g.recentScenarios, tmpl.ID)
		if len(g.recentScenarios) > recentScenarioWindow {
			g.recentScenarios = g.recentScenarios[1:]
		}
		observability.CardsGenerated.Inc()
	}
}

// rollEvents rolls the life-event catalog and applies what can be
// auto-applied. Percentage events and decision-elevated events are
// returned unapplied for the caller to resolve.
func (s *Simulator) rollEvents(g *GameState, r *rng.RNG, monthEnd, quarterEnd bool, res *TickResult) error {
	triggered := events.RollDailyEvents(r, events.RollContext{
		Date:          g.Date,
		Difficulty:    g.Difficulty,
		Persona:       g.Persona,
		Level:         g.Level,
		MonthlyIncome: g.MonthlyIncome,
		IsMonthEnd:    monthEnd,
		IsQuarterEnd:  quarterEnd,
	})

	for _, ev := range triggered {
		res.Events = append(res.Events, ev)
		observability.EventsTriggered.WithLabelValues(string(ev.Kind)).Inc()

		if ev.RequiresDecision {
			observability.DecisionsRequired.Inc()
			continue
		}
		if ev.Amount.Kind != domain.AmountCurrency || ev.Amount.Value == 0 {
			continue
		}

		txn, err := s.createTransaction(g, domain.TransactionInput{
			GameID:      g.GameID,
			Date:        g.Date,
			Type:        domain.TxEvent,
			Category:    string(ev.Kind),
			Description: ev.Description,
			Entries: []domain.LedgerEntry{
				{AccountID: g.CheckingAccountID, Amount: ev.Amount.Value},
				{AccountID: g.ExternalAccountID, Amount: -ev.Amount.Value},
			},
		})
		if err != nil {
			return fmt.Errorf("apply event %s: %w", ev.Kind, err)
		}
		res.Transactions = append(res.Transactions, txn)
	}
	return nil
}

// closeMonth applies income, savings interest, portfolio returns, and
// recomputes the credit health index and bankruptcy stage.
func (s *Simulator) closeMonth(g *GameState, r *rng.RNG, quarterEnd bool, res *TickResult) error {
	if err := s.applyIncome(g, res); err != nil {
		return err
	}
	if err := s.applySavingsInterest(g, res); err != nil {
		return err
	}
	if err := s.applyPortfolioMonth(g, r, quarterEnd, res); err != nil {
		return err
	}

	cr := credit.Calculate(g.Credit)
	cr.Trend = credit.DetermineTrend(cr.Overall, g.previousCreditScore)
	g.previousCreditScore = cr.Overall
	res.Credit = &cr
	observability.CreditScore.WithLabelValues(g.GameID).Set(float64(cr.Overall))

	if err := s.assessBankruptcy(g, res); err != nil {
		return err
	}
	return nil
}

func (s *Simulator) applyIncome(g *GameState, res *TickResult) error {
	if g.MonthlyIncome <= 0 {
		return nil
	}
	withheld := interest.BankersRound(float64(g.MonthlyIncome) * withholdingRate)
	net := g.MonthlyIncome - withheld

	txn, err := s.createTransaction(g, domain.TransactionInput{
		GameID:      g.GameID,
		Date:        g.Date,
		Type:        domain.TxIncome,
		Category:    "salary",
		Description: "Monthly income",
		Entries: []domain.LedgerEntry{
			{AccountID: g.CheckingAccountID, Amount: net},
			{AccountID: g.ExternalAccountID, Amount: -net},
		},
		Metadata: map[string]string{"withheld": fmt.Sprintf("%d", withheld)},
	})
	if err != nil {
		return fmt.Errorf("apply income: %w", err)
	}
	res.Transactions = append(res.Transactions, txn)

	g.annualIncome += g.MonthlyIncome
	g.annualWithheld += withheld
	return nil
}

func (s *Simulator) applySavingsInterest(g *GameState, res *TickResult) error {
	balance, err := s.store.Balance(g.SavingsAccountID)
	if err != nil {
		return fmt.Errorf("savings balance: %w", err)
	}
	earned := interest.SavingsInterest(balance, g.SavingsAPY)
	if earned <= 0 {
		return nil
	}

	txn, err := s.createTransaction(g, domain.TransactionInput{
		GameID:      g.GameID,
		Date:        g.Date,
		Type:        domain.TxInterest,
		Category:    "savings",
		Description: "Monthly savings interest",
		Entries: []domain.LedgerEntry{
			{AccountID: g.SavingsAccountID, Amount: earned},
			{AccountID: g.ExternalAccountID, Amount: -earned},
		},
	})
	if err != nil {
		return fmt.Errorf("apply savings interest: %w", err)
	}
	res.Transactions = append(res.Transactions, txn)
	return nil
}

func (s *Simulator) applyPortfolioMonth(g *GameState, r *rng.RNG, quarterEnd bool, res *TickResult) error {
	if len(g.Holdings) == 0 {
		return nil
	}
	dividends := invest.SimulatePortfolioMonth(r, g.Holdings, quarterEnd, g.Difficulty.Multiplier())
	observability.PortfolioValue.WithLabelValues(g.GameID).Set(float64(invest.TotalValue(g.Holdings)))
	if dividends <= 0 {
		return nil
	}

	txn, err := s.createTransaction(g, domain.TransactionInput{
		GameID:      g.GameID,
		Date:        g.Date,
		Type:        domain.TxDividend,
		Category:    "investing",
		Description: "Quarterly dividends",
		Entries: []domain.LedgerEntry{
			{AccountID: g.CheckingAccountID, Amount: dividends},
			{AccountID: g.ExternalAccountID, Amount: -dividends},
		},
	})
	if err != nil {
		return fmt.Errorf("apply dividends: %w", err)
	}
	res.Transactions = append(res.Transactions, txn)
	return nil
}

func (s *Simulator) assessBankruptcy(g *GameState, res *TickResult) error {
	netWorth, err := s.netWorth(g)
	if err != nil {
		return err
	}
	if netWorth < 0 {
		g.consecutiveNegativeMonths++
		g.monthsPositive = 0
	} else {
		g.consecutiveNegativeMonths = 0
		g.monthsPositive++
	}

	a := events.AssessBankruptcy(netWorth, g.MonthlyIncome,
		g.consecutiveNegativeMonths, g.bankruptcyActive, g.monthsPositive)
	g.bankruptcyActive = a.Active
	res.Bankruptcy = &a
	return nil
}

// fileTaxes settles the accumulated tax year on filing day and resets
// the accumulators.
func (s *Simulator) fileTaxes(g *GameState, res *TickResult) error {
	a := events.CalculateTaxAssessment(g.annualIncome, g.annualWithheld)
	res.Tax = &a
	g.annualIncome = 0
	g.annualWithheld = 0

	net := a.Refund - a.BalanceDue
	if net == 0 {
		return nil
	}

	desc := "Tax refund"
	if net < 0 {
		desc = "Tax balance due"
	}
	txn, err := s.createTransaction(g, domain.TransactionInput{
		GameID:      g.GameID,
		Date:        g.Date,
		Type:        domain.TxTax,
		Category:    "taxes",
		Description: desc,
		Entries: []domain.LedgerEntry{
			{AccountID: g.CheckingAccountID, Amount: net},
			{AccountID: g.ExternalAccountID, Amount: -net},
		},
	})
	if err != nil {
		return fmt.Errorf("file taxes: %w", err)
	}
	res.Transactions = append(res.Transactions, txn)
	return nil
}

// ─── Batches ────────────────────────────────────────────────────────────────

// ApplyBatch creates several transactions atomically for a registered
// game: either every input lands (and is journaled) or none do.
func (s *Simulator) ApplyBatch(gameID string, inputs []domain.TransactionInput) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[gameID]; !ok {
		return nil, fmt.Errorf("batch: unknown game %q", gameID)
	}

	txns, err := ledger.CreateBatch(inputs, s.store)
	if err != nil {
		observability.BatchRollbacks.Inc()
		return nil, err
	}

	for _, txn := range txns {
		observability.TransactionsCreated.WithLabelValues(string(txn.Type)).Inc()
		if s.journal != nil {
			if err := s.journal.RecordTransaction(txn); err != nil {
				return nil, fmt.Errorf("journal %s: %w", txn.ID, err)
			}
		}
	}
	return txns, nil
}

// ─── Card Resolution ────────────────────────────────────────────────────────

// ResolveCard resolves a pending card and removes it. The rewards for
// the chosen option are returned alongside the resolution.
func (s *Simulator) ResolveCard(gameID, cardID, optionID string) (cards.Resolution, cards.Rewards, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return cards.Resolution{}, cards.Rewards{}, fmt.Errorf("resolve: unknown game %q", gameID)
	}
	card, ok := g.PendingCards[cardID]
	if !ok {
		return cards.Resolution{}, cards.Rewards{}, domain.Errorf(domain.CodeCardNotFound,
			"game %s has no pending card %q", gameID, cardID)
	}

	resolution, err := cards.ResolveCard(card, optionID, s.store, g.CheckingAccountID, gameID, g.Date)
	if err != nil {
		observability.CardsResolved.WithLabelValues("failed").Inc()
		return cards.Resolution{}, cards.Rewards{}, err
	}
	delete(g.PendingCards, cardID)
	observability.CardsResolved.WithLabelValues("resolved").Inc()

	rewards := cards.CardRewards(resolution.Option, 1.0, 1.0, g.Difficulty.Multiplier())
	return resolution, rewards, nil
}

// ExpirePendingCards drops pending cards whose expiry has passed and
// returns how many were removed.
func (s *Simulator) ExpirePendingCards(gameID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return 0
	}
	expired := 0
	for id, card := range g.PendingCards {
		if card.ExpiresAt.Before(g.Date) {
			delete(g.PendingCards, id)
			observability.CardsResolved.WithLabelValues("expired").Inc()
			expired++
		}
	}
	return expired
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// createTransaction routes through the ledger and the journal.
func (s *Simulator) createTransaction(g *GameState, input domain.TransactionInput) (domain.Transaction, error) {
	txn, err := ledger.CreateTransaction(input, s.store)
	if err != nil {
		return domain.Transaction{}, err
	}
	observability.TransactionsCreated.WithLabelValues(string(txn.Type)).Inc()

	if s.journal != nil {
		if err := s.journal.RecordTransaction(txn); err != nil {
			return domain.Transaction{}, fmt.Errorf("journal %s: %w", txn.ID, err)
		}
	}
	return txn, nil
}

// netWorth is liquid balances plus portfolio value.
func (s *Simulator) netWorth(g *GameState) (int64, error) {
	checking, err := s.store.Balance(g.CheckingAccountID)
	if err != nil {
		return 0, err
	}
	savings, err := s.store.Balance(g.SavingsAccountID)
	if err != nil {
		return 0, err
	}
	return checking + savings + invest.TotalValue(g.Holdings), nil
}

// isMonthEnd reports whether the date is the last day of its month.
func isMonthEnd(d domain.GameDate) bool {
	return d.AddDays(1).Month != d.Month
}
