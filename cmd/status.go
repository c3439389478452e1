package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/taskstore"
)

var (
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Display ledger status",
		Long:  `Display how many wallets and tasks are pending or completed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.store.ListAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read ledger store: %w", err)
			}
			s := taskstore.Summarize(entries)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📊 Ledger Status Report\n")
			fmt.Fprintf(out, "======================\n\n")
			fmt.Fprintf(out, "💾 Store: %s\n", a.backend.Describe())
			fmt.Fprintf(out, "🧩 Task executors installed: %d\n\n", a.catalogue.Len())
			fmt.Fprintf(out, "👛 Wallets: %d (%d completed, %d pending)\n", s.Ledgers, s.CompletedLedgers, s.PendingLedgers)
			fmt.Fprintf(out, "📋 Tasks:   %d (%d completed, %d pending)\n", s.Tasks, s.CompletedTasks, s.PendingTasks)

			if s.Ledgers == 0 {
				fmt.Fprintf(out, "\n💡 No wallets in the ledger, run \"db reset\" to assign tasks\n")
			}
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(statusCmd)
}
