// Package observability exposes Prometheus metrics for the simulation
// engine and keeps a short in-memory log of recent ticks for inspection.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Tick Log ───────────────────────────────────────────────────────────────

// TickRecord summarizes one simulated day for later inspection.
type TickRecord struct {
	GameID       string `json:"game_id"`
	Date         string `json:"date"`
	Seed         string `json:"seed"`
	Transactions int    `json:"transactions"`
	CardsDealt   int    `json:"cards_dealt"`
	Events       int    `json:"events"`
}

// TickLog is a bounded ring buffer of recent tick records.
type TickLog struct {
	mu      sync.Mutex
	records []TickRecord
	maxSize int
}

// NewTickLog creates a tick log holding at most maxSize records.
func NewTickLog(maxSize int) *TickLog {
	if maxSize <= 0 {
		maxSize = 1_000
	}
	return &TickLog{records: make([]TickRecord, 0, maxSize), maxSize: maxSize}
}

// Record appends a tick record, evicting the oldest at capacity.
func (l *TickLog) Record(r TickRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.records) >= l.maxSize {
		l.records = l.records[1:]
	}
	l.records = append(l.records, r)
}

// Recent returns up to limit of the most recent records, oldest first.
func (l *TickLog) Recent(limit int) []TickRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > len(l.records) {
		limit = len(l.records)
	}
	start := len(l.records) - limit
	out := make([]TickRecord, limit)
	copy(out, l.records[start:])
	return out
}

// Count returns the number of retained records.
func (l *TickLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Reset clears the log.
func (l *TickLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = l.records[:0]
}

// ─── Simulation Metrics ─────────────────────────────────────────────────────

// TicksProcessed counts simulated days, by game.
var TicksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pocketwise",
	Subsystem: "sim",
	Name:      "ticks_total",
	Help:      "Total simulated days processed.",
}, []string{"game_id"})

// TransactionsCreated counts ledger transactions by type.
var TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pocketwise",
	Subsystem: "ledger",
	Name:      "transactions_created_total",
	Help:      "Total ledger transactions created, by type.",
}, []string{"type"})

// BatchRollbacks counts all-or-nothing batches that rolled back.
var BatchRollbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "pocketwise",
	Subsystem: "ledger",
	Name:      "batch_rollbacks_total",
	Help:      "Total transaction batches rolled back on validation failure.",
})

// ─── Event Metrics ──────────────────────────────────────────────────────────

// EventsTriggered counts triggered life events by kind.
var EventsTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pocketwise",
	Subsystem: "events",
	Name:      "triggered_total",
	Help:      "Total life events triggered, by kind.",
}, []string{"kind"})

// DecisionsRequired counts events elevated to a player decision.
var DecisionsRequired = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "pocketwise",
	Subsystem: "events",
	Name:      "decisions_required_total",
	Help:      "Total events elevated to an explicit player decision.",
})

// ─── Card Metrics ───────────────────────────────────────────────────────────

// CardsGenerated counts dealt decision cards.
var CardsGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "pocketwise",
	Subsystem: "cards",
	Name:      "generated_total",
	Help:      "Total decision cards generated.",
})

// CardsResolved counts card resolutions by outcome.
var CardsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pocketwise",
	Subsystem: "cards",
	Name:      "resolved_total",
	Help:      "Total decision-card resolutions, by outcome.",
}, []string{"outcome"})

// ─── Score Metrics ──────────────────────────────────────────────────────────

// CreditScore tracks the latest composite credit score per game.
var CreditScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "pocketwise",
	Subsystem: "credit",
	Name:      "score",
	Help:      "Latest composite credit score (300-850), by game.",
}, []string{"game_id"})

// PortfolioValue tracks total investment value per game.
var PortfolioValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "pocketwise",
	Subsystem: "invest",
	Name:      "portfolio_value_cents",
	Help:      "Total portfolio value in cents, by game.",
}, []string{"game_id"})
