package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alari/backend/internal/repository"
	"github.com/alari/backend/internal/streak"
)

func RepairCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Recompute every goal's streak once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeFn, err := openApp()
			if err != nil {
				return err
			}
			defer closeFn()

			repairer := a.Repairer
			if concurrency > 0 {
				repairer = streak.NewRepairer(a.Engine, repository.NewGoalRepository(a.DB), concurrency)
			}

			report, err := repairer.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "checked %d, corrected %d, failed %d\n", report.Checked, report.Corrected, report.Failed)
			if report.Failed > 0 {
				return fmt.Errorf("%d goals could not be repaired", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "goals repaired in parallel (default from STREAK_REPAIR_CONCURRENCY)")
	return cmd
}
