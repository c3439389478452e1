package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/stats"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/wallet"
)

var (
	statsNotify     bool
	statsSaveTokens bool

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show balance, transaction count and points of every wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			report, err := collectStats(ctx, a)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Table())
			return finishStats(ctx, cmd.OutOrStdout(), a, report, statsNotify)
		},
	}
)

func collectStats(ctx context.Context, a *app) (*stats.Report, error) {
	wallets, err := a.loadWallets()
	if err != nil {
		return nil, err
	}

	chain, err := stats.DialChain(ctx, a.cfg.Network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", a.cfg.Network.RPCURL, err)
	}
	defer chain.Close()

	if id, err := chain.ChainID(ctx); err == nil && id.Int64() != a.cfg.Network.ChainID {
		a.logger.Warn("RPC endpoint serves another chain", "expected", a.cfg.Network.ChainID, "got", id)
	}

	profiles := stats.NewProfileClient(a.cfg.Network.APIURL, 30*time.Second)
	return stats.NewCollector(chain, profiles, a.resolver, a.logger).Collect(ctx, wallets)
}

// finishStats stores refreshed tokens and optionally sends the table.
func finishStats(ctx context.Context, out io.Writer, a *app, report *stats.Report, notify bool) error {
	if statsSaveTokens && len(report.Refreshed) > 0 {
		if err := wallet.SaveTokens(a.cfg.WalletsPath, report.Refreshed); err != nil {
			a.logger.Warn("Failed to save refreshed tokens", "error", err)
		} else {
			fmt.Fprintf(out, "Saved %d refreshed tokens to %s\n", len(report.Refreshed), a.cfg.WalletsPath)
		}
	}

	if !notify {
		return nil
	}
	if err := a.notifier.SendMessage(ctx, report.Markdown()); err != nil {
		return fmt.Errorf("failed to send statistics: %w", err)
	}
	fmt.Fprintln(out, "Wallet statistics table sent to Telegram.")
	return nil
}

func init() {
	statsCmd.Flags().BoolVar(&statsNotify, "notify", false, "Send the table to Telegram")
	statsCmd.Flags().BoolVar(&statsSaveTokens, "save-tokens", true, "Write refreshed API tokens back to the wallet file")
	rootCmd.AddCommand(statsCmd)
}
