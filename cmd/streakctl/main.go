package main

import (
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/alari/backend/cmd/streakctl/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "streakctl",
		Short:        "Maintenance tools for Alari goal streaks",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.RecomputeCmd())
	rootCmd.AddCommand(cmd.RepairCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
