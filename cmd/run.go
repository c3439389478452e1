package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/apiserver"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/orchestrator"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/scheduler"
)

var (
	runCron          string
	runScheduledFlag bool
	runTxCount       int
	runImmediate     bool
	runServe         bool

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run every pending task of every wallet",
		Long: `Visit every wallet of wallet.json in random order and run its pending
tasks, recording each success as it happens. An interrupted batch resumes
where it stopped on the next run.

Use --cron to repeat the batch on a schedule until interrupted, e.g.
--cron "0 */6 * * *", or --scheduled to use the schedule key of config.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			spec := runCron
			if spec == "" && runScheduledFlag {
				if a.cfg.Schedule == "" {
					return fmt.Errorf("--scheduled needs a schedule in %s", configPath)
				}
				spec = a.cfg.Schedule
			}
			if spec == "" {
				_, err := runBatch(ctx, cmd.OutOrStdout(), a, runTxCount)
				return err
			}
			return runScheduled(ctx, cmd.OutOrStdout(), a, spec)
		},
	}
)

// runBatch loads the wallet file and runs one batch over it.
func runBatch(ctx context.Context, out io.Writer, a *app, txCount int) (*orchestrator.BatchResult, error) {
	wallets, err := a.loadWallets()
	if err != nil {
		return nil, err
	}
	rc := a.runContext(wallets, txCount)
	fmt.Fprintf(out, "Run %s: %d wallets, transaction count %d\n", rc.ID, len(wallets), rc.CurrentTxCount())

	result, err := a.orchestrator().Run(ctx, rc)
	if result != nil {
		printBatch(out, result)
	}
	return result, err
}

func runScheduled(ctx context.Context, out io.Writer, a *app, spec string) error {
	s, err := scheduler.New(a.logger)
	if err != nil {
		return err
	}
	err = s.Schedule(ctx, spec, runImmediate, func(ctx context.Context) error {
		_, err := runBatch(ctx, out, a, runTxCount)
		return err
	})
	if err != nil {
		return err
	}

	if a.cfg.Store.BackupInterval > 0 {
		if err := a.backups.StartPeriodicBackup(a.cfg.Store.BackupInterval); err != nil {
			return err
		}
	}

	s.Start()
	fmt.Fprintf(out, "Scheduled batch runs with %q, press Ctrl+C to stop\n", spec)

	if runServe {
		srv := apiserver.New(a.store, a.registry, a.logger, apiserver.WithScheduler(s))
		go func() {
			if err := srv.Start(ctx, a.cfg.HTTPBindAddress); err != nil {
				a.logger.Warn("HTTP server stopped", "address", a.cfg.HTTPBindAddress, "error", err)
			}
		}()
	}

	<-ctx.Done()
	return s.Shutdown()
}

func printBatch(out io.Writer, result *orchestrator.BatchResult) {
	for _, w := range result.Wallets {
		label := w.Identity
		if label == "" {
			label = w.Name
		}
		fmt.Fprintf(out, "  %2d. %-42s %-11s completed=%d failed=%d\n",
			w.Position, label, w.Result, len(w.Completed), len(w.Failed))
	}
	fmt.Fprintf(out, "Done in %s: %d tasks completed, %d failed\n",
		result.Finished.Sub(result.Started).Round(time.Millisecond), result.CompletedTasks(), result.FailedTasks())
}

func init() {
	runCmd.Flags().StringVar(&runCron, "cron", "", "Repeat the batch on this cron schedule")
	runCmd.Flags().BoolVar(&runScheduledFlag, "scheduled", false, "Repeat the batch on the schedule from the config file")
	runCmd.Flags().IntVar(&runTxCount, "tx-count", 0, "Transactions per task (default: drawn from FLOW.NUMBER_OF_SWAPS)")
	runCmd.Flags().BoolVar(&runImmediate, "immediate", true, "With --cron, start the first batch right away")
	runCmd.Flags().BoolVar(&runServe, "serve", false, "With --cron, also serve the read-only HTTP API")
	rootCmd.AddCommand(runCmd)
}
