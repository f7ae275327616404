// Package cli implements the pocketwise command-line harness. It is a
// thin driver around the simulation engine: every command builds a
// store, a catalog, and a simulator, then prints what the engine
// returns. No game logic lives here.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pocketwise/pocketwise/internal/infra/catalog"
)

var log = logrus.New()

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default: in-memory balances)")
	rootCmd.PersistentFlags().String("catalog", "", "TOML catalog override file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:   "pocketwise",
	Short: "Deterministic financial-simulation engine",
	Long: `Pocketwise simulates the economic life of a game player one day at a
time: double-entry balances, interest accrual, credit health, investment
returns, decision cards, and random life events. Every run with the same
game ID and starting state is reproducible.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.SetLevel(logrus.DebugLevel)
		}
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadCatalog reads the --catalog override or falls back to defaults.
func loadCatalog(cmd *cobra.Command) (catalog.Config, error) {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}
