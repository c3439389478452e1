package cmd

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/taskstore"
)

var (
	backupInterval time.Duration
	restoreFile    string
	restoreYes     bool

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Backup the ledger store",
		Long: `Backup the ledger store to the backup_dir of the config file.

Backups are stored in the format: backup_dir/yy-mm-dd-hh-mm-ss/
Use --interval to keep taking backups until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			path, err := a.backups.PerformBackup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup completed successfully to %s\n", path)

			if c, ok := a.backend.(taskstore.Compactor); ok {
				if err := c.Compact(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Compacted %s\n", a.backend.Describe())
			}

			if backupInterval <= 0 {
				return nil
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			if err := a.backups.StartPeriodicBackup(backupInterval); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Taking a backup every %s, press Ctrl+C to stop\n", backupInterval)
			<-ctx.Done()
			return nil
		},
	}

	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restore the ledger store from a backup",
		Long: `Restore the ledger store from a backup file taken by "backup".

The JSON store is replaced by the file. Badger backups are loaded on top of
the current keyspace, so restore into an empty store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if !restoreYes && !confirm(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), fmt.Sprintf("Restore %s from %s?", a.backend.Describe(), restoreFile)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}

			f, err := os.Open(restoreFile)
			if err != nil {
				return fmt.Errorf("failed to open backup file: %w", err)
			}
			defer f.Close()

			if err := a.backend.Restore(cmd.Context(), f); err != nil {
				return fmt.Errorf("restore operation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Restore completed successfully")
			return nil
		},
	}
)

func init() {
	backupCmd.Flags().DurationVar(&backupInterval, "interval", 0, "Keep taking backups at this interval (0 for one-time)")
	rootCmd.AddCommand(backupCmd)

	restoreCmd.Flags().StringVar(&restoreFile, "file", "", "Backup file to restore from (required)")
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Do not ask for confirmation")
	_ = restoreCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(restoreCmd)
}
