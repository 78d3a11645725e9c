package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

func newReloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reload",
		GroupID: groupBoard,
		Short:   "Re-fetch the board state and report what changed",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := requireSession(cmd)
			if err != nil {
				return err
			}

			drifts, err := runtime.Refresher.RefreshAll(cmd.Context())
			if err != nil {
				return err
			}

			if len(drifts) == 0 {
				infof(cmd, "up to date")
			}
			for _, drift := range drifts {
				renderDrift(cmd.OutOrStdout(), drift.Type, drift.Changes)
			}
			successf(cmd, "refreshed at %s", runtime.Session.LastRefreshAt().Format(time.Kitchen))
			return nil
		},
	}

	return cmd
}
