package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/amqp"
	"ledger/internal/backend"
	"ledger/internal/log"
	"ledger/internal/worker"
)

// NewWorkerCommand creates the worker command.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	var skipStartupSync bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Mirror ledger events into the configured mirror",
		Long: `Consume ledger events from AMQP and apply them to the mirror selected
by MIRROR_BACKEND. On start the worker appends any stored entries the mirror
is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), rootOpts, !skipStartupSync)
		},
	}

	cmd.Flags().BoolVar(&skipStartupSync, "skip-startup-sync", false, "do not backfill the mirror on start")
	return cmd
}

func runWorker(parent context.Context, opts *RootOptions, startupSync bool) error {
	cfg := opts.Config
	logger := opts.Logger.WithComponent(log.ComponentWorker)

	if !cfg.EventsEnabled() {
		return errors.New("worker needs AMQP_URL")
	}

	repo, err := InitSQLite(logger, cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	mirrorCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := SignalContext(parent)
	defer stop()

	mirror, err := backend.NewFactory(opts.Logger.WithComponent(log.ComponentBackend).Logger).CreateMirror(ctx, mirrorCfg)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	w := worker.NewSyncWorker(repo, mirror.Mirror)

	if startupSync {
		logger.Info("Performing startup sync check")
		if err := w.StartupSyncCheck(ctx); err != nil {
			logger.Error("Failed startup sync check", "error", err)
		}
	}

	logger.Info("Worker started", "queue", cfg.AMQPQueue, "mirror", mirrorCfg.Type)
	err = client.ConsumeWithRetry(ctx, w.HandleEvent)
	if errors.Is(err, context.Canceled) {
		logger.Info("Worker stopped")
		return nil
	}
	return err
}
