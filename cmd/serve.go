package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atlas-booking/internal/pipeline"
	"atlas-booking/internal/wire"
	"atlas-booking/internal/worker"
	redisinit "atlas-booking/pkg/cache"
	"atlas-booking/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			inline, _ := cmd.Flags().GetBool("inline-notify")
			return serve(cmd.Context(), inline)
		},
	}
	cmd.Flags().Bool("inline-notify", false, "send confirmation emails from the API process instead of the task queue")
	return cmd
}

func serve(ctx context.Context, inline bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var notifier func(*utils.Config, *zap.Logger) (pipeline.Notifier, func())
	if !inline {
		notifier = func(config *utils.Config, logger *zap.Logger) (pipeline.Notifier, func()) {
			enq := worker.NewEnqueuer(redisinit.QueueOpt(config.Redis), logger)
			return enq, func() { _ = enq.Close() }
		}
	}

	rt, err := bootstrap(ctx, "api", notifier)
	if err != nil {
		return err
	}
	defer rt.close()

	app := wire.Wiring(rt.repo, rt.service, rt.config, rt.logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", rt.config.App.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-stop:
		rt.logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	rt.service.Drain()

	rt.logger.Info("Server stopped")
	return nil
}
