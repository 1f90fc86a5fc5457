package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"washsync-backend/internal/machine"
	"washsync-backend/internal/notification"
	"washsync-backend/internal/reconcile"
)

// NewSweepCommand creates the sweep command. Notifications raised by the
// sweep are stored; push delivery is left to the server process.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Release every machine whose timer has expired, once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, closeFn, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer closeFn()

			svc := machine.NewService(s, notification.NewCenter(s, nil))
			sweeper := reconcile.NewSweeper(s, reconcile.ServiceExpirer(svc), cfg.Reconciler.Interval)

			res, err := sweeper.SweepOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d, skipped %d, failed %d\n", res.Expired, res.Skipped, res.Failed)
			return nil
		},
	}
}
