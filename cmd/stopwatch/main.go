package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPathFlag string

var rootCmd = &cobra.Command{
	Use:   "stopwatch",
	Short: "Stopwatch - time tracking and invoicing",
	Long: `Stopwatch Command Line Interface

Tracks billable time against action items, aggregates it into phase
bills and mails the resulting invoices. This CLI runs the server and
the supporting management tasks.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", ".", "Directory containing config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(addUserCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stopwatch %s\n", rootCmd.Version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
