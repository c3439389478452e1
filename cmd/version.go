package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kazuha787/Pharos-Auto-Bot/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "get version",
	Long:  `get version and revision of the binary`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", version.Get(), version.GetRevision())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
