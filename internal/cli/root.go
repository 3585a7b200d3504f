package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"ledger/internal/config"
	"ledger/internal/log"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Version  string
	EnvFile  string
	LogLevel string

	// Set by PersistentPreRunE.
	Config *config.Config
	Logger *log.Logger
}

// NewRootCommand creates the ledger command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{Version: version}

	cmd := &cobra.Command{
		Use:           "ledger",
		Short:         "Personal finance ledger served over MCP",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load environment from this file instead of ./.env")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LEDGER_LOG_LEVEL (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewWorkerCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

func (o *RootOptions) init() error {
	var err error
	if o.EnvFile != "" {
		err = LoadEnvFile(o.EnvFile)
	} else {
		err = LoadEnvFile()
	}
	if err != nil {
		return err
	}

	if o.LogLevel != "" {
		os.Setenv("LEDGER_LOG_LEVEL", o.LogLevel)
	}

	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger, err := SetupLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	o.Config = cfg
	o.Logger = logger
	return nil
}

// Execute runs the command tree and returns the process exit code.
func Execute(version string) int {
	cmd := NewRootCommand(version)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.New(log.DefaultConfig()).Error("ledger failed", "error", err)
		return 1
	}
	return 0
}
