package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/apiserver"
)

var (
	serveBind string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger and metrics over HTTP",
		Long: `Serve a read-only HTTP API:

  GET /health                 liveness and uptime
  GET /version                build version
  GET /api/ledger             every wallet ledger
  GET /api/ledger/:identity   one wallet ledger
  GET /metrics                Prometheus metrics

Periodic backups run alongside when store.backup_interval is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if a.cfg.Store.BackupInterval > 0 {
				if err := a.backups.StartPeriodicBackup(a.cfg.Store.BackupInterval); err != nil {
					return err
				}
			}

			addr := serveBind
			if addr == "" {
				addr = a.cfg.HTTPBindAddress
			}
			return apiserver.New(a.store, a.registry, a.logger).Start(ctx, addr)
		},
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveBind, "bind", "", "Listen address (default: http_bind_address from config)")
	rootCmd.AddCommand(serveCmd)
}
