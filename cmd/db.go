package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/taskstore"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/logger"
)

var (
	dbTasks string
	dbYes   bool
	dbRaw   bool

	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Manage the wallet task ledger",
	}

	dbResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Create or reset the ledger for every wallet in wallet.json",
		Long: `Replace the whole ledger: every wallet of wallet.json gets the tasks of
--tasks (comma separated, default all known tasks), all pending.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if !dbYes && !confirm(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), "This will reset the DB for all wallets in wallet.json. Continue?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			return dbReset(cmd.Context(), cmd.OutOrStdout(), a, dbTasks)
		},
	}

	dbShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the ledger of every wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return dbShow(cmd.Context(), cmd.OutOrStdout(), a, dbRaw)
		},
	}

	dbAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Assign tasks to wallets of wallet.json that have none yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return dbAdd(cmd.Context(), cmd.OutOrStdout(), a, dbTasks)
		},
	}
)

func dbReset(ctx context.Context, out io.Writer, a *app, rawTasks string) error {
	names, err := a.taskNames(rawTasks)
	if err != nil {
		return err
	}
	wallets, err := a.loadWallets()
	if err != nil {
		return err
	}
	n, err := a.store.ResetAll(ctx, wallets, names)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Database reset and initialized: %d wallets, %d tasks each.\n", n, len(names))
	return nil
}

func dbAdd(ctx context.Context, out io.Writer, a *app, rawTasks string) error {
	names, err := a.taskNames(rawTasks)
	if err != nil {
		return err
	}
	wallets, err := a.loadWallets()
	if err != nil {
		return err
	}
	n, err := a.store.AddMissing(ctx, wallets, names)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %d new wallets to DB.\n", n)
	return nil
}

func dbShow(ctx context.Context, out io.Writer, a *app, raw bool) error {
	entries, err := a.store.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "Database is empty.")
		return nil
	}

	if raw {
		printer := pp.New()
		printer.SetOutput(out)
		printer.SetColoringEnabled(false)
		_, err := printer.Println(entries)
		return err
	}

	fmt.Fprintln(out, "Wallet DB:")
	for _, e := range entries {
		fmt.Fprintln(out, ledgerLine(e))
	}
	return nil
}

func ledgerLine(e taskstore.Entry) string {
	tasks := lo.Map(e.Ledger.Tasks, func(t model.TaskRecord, _ int) string {
		return fmt.Sprintf("%s(%s)", t.Name, t.Status)
	})
	return fmt.Sprintf("Wallet: %s | Status: %s | Tasks: %s",
		logger.ShortIdentity(e.Identity), e.Ledger.Status, strings.Join(tasks, ", "))
}

// confirm asks a yes/no question, defaulting to no.
func confirm(in *bufio.Reader, out io.Writer, question string) bool {
	return strings.HasPrefix(strings.ToLower(prompt(in, out, question+" (y/n)", "n")), "y")
}

// prompt reads one line, returning def for an empty answer or end of input.
func prompt(in *bufio.Reader, out io.Writer, question, def string) string {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}
	answer, _ := in.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def
	}
	return answer
}

func init() {
	for _, c := range []*cobra.Command{dbResetCmd, dbAddCmd} {
		c.Flags().StringVar(&dbTasks, "tasks", "", "Comma separated task names (default: all known tasks)")
	}
	dbResetCmd.Flags().BoolVarP(&dbYes, "yes", "y", false, "Do not ask for confirmation")
	dbShowCmd.Flags().BoolVar(&dbRaw, "raw", false, "Dump the ledger structures")

	dbCmd.AddCommand(dbResetCmd, dbShowCmd, dbAddCmd)
	rootCmd.AddCommand(dbCmd)
}
