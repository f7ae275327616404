package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pocketwise/pocketwise/internal/infra/sqlite"
	"github.com/pocketwise/pocketwise/internal/sim/ledger"
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().String("game", "", "Limit the replay check to one game")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Verify double-entry integrity of a journal database",
	Long: `Audit a SQLite journal: every recorded transaction must have two or
more entries summing to exactly zero. Exits nonzero if any transaction
fails the check.`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		return fmt.Errorf("audit requires --db")
	}

	store, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ok, bad, err := store.IntegrityAudit()
	if err != nil {
		return err
	}

	if gameID, _ := cmd.Flags().GetString("game"); gameID != "" {
		txns, err := store.TransactionsForGame(gameID)
		if err != nil {
			return err
		}
		replayOK, replayBad := ledger.VerifyIntegrity(txns)
		fmt.Fprintf(os.Stdout, "game %s: %d transactions\n", gameID, len(txns))
		if !replayOK {
			ok = false
			bad = append(bad, replayBad...)
		}
	}

	if !ok {
		for _, id := range bad {
			fmt.Fprintf(os.Stdout, "unbalanced: %s\n", id)
		}
		return fmt.Errorf("audit failed: %d bad transactions", len(bad))
	}

	fmt.Fprintln(os.Stdout, "audit passed")
	return nil
}
