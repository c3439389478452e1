package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/executor"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/orchestrator"
)

var (
	taskTxCount int

	taskCmd = &cobra.Command{
		Use:   "task <name>",
		Short: "Run one task for every wallet",
		Long: `Run a single task for every wallet of wallet.json in file order.

The ledger is neither read nor updated. Success is decided by the outcome the
task reports or, when it reports none, by its log lines.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: executor.KnownTaskNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			wallets, err := a.loadWallets()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			rc := a.runContext(wallets, taskTxCount)
			result, err := a.orchestrator().InvokeTask(ctx, rc, args[0])
			if result != nil {
				printTask(cmd.OutOrStdout(), a.catalogue.Label(args[0]), result)
			}
			return err
		},
	}
)

func printTask(out io.Writer, label string, result *orchestrator.BatchResult) {
	for _, w := range result.Wallets {
		state := "failed"
		if len(w.Completed) > 0 {
			state = "completed"
		}
		fmt.Fprintf(out, "  %2d. %-42s %s %s\n", w.Position, w.Identity, label, state)
	}
	fmt.Fprintf(out, "%s: %d completed, %d failed\n", label, result.CompletedTasks(), result.FailedTasks())
}

func init() {
	taskCmd.Flags().IntVar(&taskTxCount, "tx-count", 0, "Transactions per wallet (default: drawn from FLOW.NUMBER_OF_SWAPS)")
	rootCmd.AddCommand(taskCmd)
}
