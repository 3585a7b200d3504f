package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ledger/internal/config"
	ledgerhttp "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/mcpserver"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the ledger MCP server.

With the stdio transport the protocol runs on stdin/stdout and all logs go to
stderr. With the http transport the streamable endpoint is mounted at /mcp.

Example:
  ledger serve
  ledger serve --transport http`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if transport != "" {
				rootOpts.Config.Transport = transport
			}
			return runServe(cmd.Context(), rootOpts)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "override LEDGER_TRANSPORT (stdio|http)")
	return cmd
}

func runServe(parent context.Context, opts *RootOptions) error {
	cfg, logger := opts.Config, opts.Logger
	if cfg.Transport != config.TransportStdio && cfg.Transport != config.TransportHTTP {
		return fmt.Errorf("invalid transport %q", cfg.Transport)
	}

	repo, err := InitSQLite(logger, cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	client, err := InitPublisher(logger, cfg)
	if err != nil {
		logger.WithComponent(log.ComponentAMQP).Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		client = nil
	}
	if client != nil {
		defer client.Close()
	}

	svc := NewService(repo, client, cfg)
	srv := mcpserver.New(svc, opts.Version, logger)

	ctx, stop := SignalContext(parent)
	defer stop()

	logger.Info("Starting ledger",
		"version", opts.Version,
		"transport", cfg.Transport,
		"db_path", cfg.DBPath,
		"events", client != nil)

	if cfg.Transport == config.TransportStdio {
		return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
	}

	httpSrv := ledgerhttp.NewServer(":"+cfg.Port, srv.StreamableHTTP(), repo.Ping, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpSrv.ListenAndServe()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP transport")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
