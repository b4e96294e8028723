package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func RecomputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute <goal-id>",
		Short: "Recompute one goal's streak from its check-ins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeFn, err := openApp()
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := a.Engine.RecomputeStreak(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			state := "unchanged"
			if result.Changed {
				state = "corrected"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "goal %s: streak %d (%s)\n", result.GoalID, result.StreakCount, state)
			return nil
		},
	}
}
