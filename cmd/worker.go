package cmd

import (
	"context"

	"atlas-booking/internal/worker"
	redisinit "atlas-booking/pkg/cache"

	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background worker: confirmation emails and pending booking expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			rt, err := bootstrap(ctx, "worker", nil)
			if err != nil {
				return err
			}
			defer rt.close()

			srv := worker.NewServer(redisinit.QueueOpt(rt.config.Redis), rt.config.Worker, rt.service, rt.logger)
			return srv.Run()
		},
	}
}
