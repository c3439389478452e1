package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/config"
)

// rootCmd represents the base command when called without any subcommands
var (
	configPath = config.DefaultConfigPath
	rootCmd    = &cobra.Command{
		Use:   "pharos-bot",
		Short: "Pharos testnet multi-wallet task runner",
		Long: `Run testnet tasks for every wallet in wallet.json and keep track of
what each wallet has already done.

Without a sub command the interactive menu starts. Use "pharos-bot run"
for an unattended batch and "pharos-bot db reset" to assign tasks.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd)
		},
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to config file")
}
