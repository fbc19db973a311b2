package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "signals-service",
	Short: "Trade signal ingestion, risk validation and approval backend",
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sendCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
