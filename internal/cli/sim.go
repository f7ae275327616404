package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pocketwise/pocketwise/internal/app/simulator"
	"github.com/pocketwise/pocketwise/internal/domain"
	"github.com/pocketwise/pocketwise/internal/infra/sqlite"
	"github.com/pocketwise/pocketwise/internal/sim/events"
	"github.com/pocketwise/pocketwise/internal/sim/invest"
	"github.com/pocketwise/pocketwise/internal/sim/ledger"
)

func init() {
	rootCmd.AddCommand(simCmd)

	simCmd.Flags().String("game", "demo", "Game identifier (seeds the RNG)")
	simCmd.Flags().Int("days", 30, "Number of days to simulate")
	simCmd.Flags().String("persona", "young_adult", "Player persona (teen, student, young_adult, parent)")
	simCmd.Flags().String("difficulty", "normal", "Difficulty (easy, normal, hard)")
	simCmd.Flags().Int64("income", 400000, "Monthly income in cents")
	simCmd.Flags().String("start", "2024-01-01", "Start date (YYYY-MM-DD)")
	simCmd.Flags().Int64("checking", 100000, "Opening checking balance in cents")
	simCmd.Flags().Int64("savings", 500000, "Opening savings balance in cents")
	simCmd.Flags().Int64("bonds", 0, "Opening bond holding in cents")
	simCmd.Flags().Bool("auto-resolve", false, "Resolve each dealt card with its first option")
}

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the simulation for a number of days",
	Long: `Simulate a game day by day, printing dealt cards, triggered events,
and created transactions. The same --game and starting flags always
reproduce the same run.`,
	RunE: runSim,
}

func runSim(cmd *cobra.Command, args []string) error {
	gameID, _ := cmd.Flags().GetString("game")
	days, _ := cmd.Flags().GetInt("days")
	personaStr, _ := cmd.Flags().GetString("persona")
	difficultyStr, _ := cmd.Flags().GetString("difficulty")
	income, _ := cmd.Flags().GetInt64("income")
	startStr, _ := cmd.Flags().GetString("start")
	checking, _ := cmd.Flags().GetInt64("checking")
	savings, _ := cmd.Flags().GetInt64("savings")
	bonds, _ := cmd.Flags().GetInt64("bonds")
	autoResolve, _ := cmd.Flags().GetBool("auto-resolve")

	start, err := parseDate(startStr)
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	store, journal, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []simulator.Option{simulator.WithLogger(log)}
	if journal != nil {
		opts = append(opts, simulator.WithJournal(journal))
	}
	sim := simulator.New(store, cat, opts...)

	game := simulator.NewGameState(gameID, domain.Persona(personaStr),
		domain.Difficulty(difficultyStr), start, income)
	if bonds > 0 {
		game.Holdings = []invest.Holding{
			{Kind: invest.AssetBond, Value: bonds, PurchaseDate: start},
		}
	}
	sim.AddGame(game)

	if _, err := store.Apply([]domain.LedgerEntry{
		{AccountID: game.CheckingAccountID, Amount: checking},
		{AccountID: game.SavingsAccountID, Amount: savings},
	}); err != nil {
		return fmt.Errorf("open accounts: %w", err)
	}

	for day := 0; day < days; day++ {
		res, err := sim.Tick(gameID)
		if err != nil {
			return err
		}
		printTick(res)

		if autoResolve {
			for _, card := range res.NewCards {
				if _, _, err := sim.ResolveCard(gameID, card.ID, card.Options[0].ID); err != nil {
					return err
				}
			}
		}
		sim.ExpirePendingCards(gameID)
	}

	return printSummary(store, game)
}

func printTick(res simulator.TickResult) {
	fields := logrus.Fields{"date": res.Date.String(), "seed": res.Seed}
	log.WithFields(fields).Info("day")

	for _, card := range res.NewCards {
		fmt.Fprintf(os.Stdout, "  card  %-24s %s (%d options, expires %s)\n",
			card.TemplateID, card.Title, len(card.Options), card.ExpiresAt)
	}
	for _, ev := range res.Events {
		marker := "event"
		if ev.RequiresDecision {
			marker = "event*"
		}
		fmt.Fprintf(os.Stdout, "  %-6s %-24s %s\n", marker, ev.Kind, formatAmount(ev))
	}
	for _, txn := range res.Transactions {
		fmt.Fprintf(os.Stdout, "  txn   %-24s %s\n", txn.Type, txn.Description)
	}
	if res.Credit != nil {
		fmt.Fprintf(os.Stdout, "  credit %d (%s)\n", res.Credit.Overall, res.Credit.Trend)
	}
	if res.Bankruptcy != nil && res.Bankruptcy.Stage != "none" {
		fmt.Fprintf(os.Stdout, "  bankruptcy stage=%s ratio=%.2f\n",
			res.Bankruptcy.Stage, res.Bankruptcy.Ratio)
	}
	if res.Tax != nil {
		fmt.Fprintf(os.Stdout, "  tax   owed=%d refund=%d due=%d\n",
			res.Tax.TaxOwed, res.Tax.Refund, res.Tax.BalanceDue)
	}
}

func printSummary(store domain.AccountStore, game *simulator.GameState) error {
	checking, err := store.Balance(game.CheckingAccountID)
	if err != nil {
		return err
	}
	savings, err := store.Balance(game.SavingsAccountID)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout)
	fmt.Fprintf(os.Stdout, "final checking: %s\n", formatCents(checking))
	fmt.Fprintf(os.Stdout, "final savings:  %s\n", formatCents(savings))
	if len(game.Holdings) > 0 {
		fmt.Fprintf(os.Stdout, "portfolio:      %s\n", formatCents(invest.TotalValue(game.Holdings)))
	}
	fmt.Fprintf(os.Stdout, "pending cards:  %d\n", len(game.PendingCards))
	return nil
}

// openStore builds the balance store from --db: SQLite when given, the
// in-memory store otherwise.
func openStore(cmd *cobra.Command) (domain.AccountStore, simulator.Journal, func(), error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		return ledger.NewMemoryStore(), nil, func() {}, nil
	}

	store, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	return store, store, func() { store.Close() }, nil
}

func parseDate(s string) (domain.GameDate, error) {
	var d domain.GameDate
	if _, err := fmt.Sscanf(s, "%d-%d-%d", &d.Year, &d.Month, &d.Day); err != nil {
		return domain.GameDate{}, fmt.Errorf("parse date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func formatAmount(ev events.TriggeredEvent) string {
	if ev.Amount.Kind == domain.AmountPercent {
		return fmt.Sprintf("%.2f%%", float64(ev.Amount.Value)/100)
	}
	return formatCents(ev.Amount.Value)
}
