package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ledger/internal/mcpserver"
	"ledger/internal/storage"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print every transaction as JSON",
		Long: `Print the same document the ledger://transactions resource serves.

Example:
  ledger export > ledger.json
  ledger export --output backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return runExport(cmd, rootOpts, out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func runExport(cmd *cobra.Command, opts *RootOptions, out io.Writer) error {
	repo, err := InitSQLite(opts.Logger, opts.Config.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := NewService(repo, nil, opts.Config)
	x, err := svc.Export(cmd.Context())
	if err != nil {
		return err
	}

	body, err := mcpserver.ExportJSON(x)
	if err != nil {
		return err
	}
	if _, err := out.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	opts.Logger.Info("Exported ledger", "count", len(x.Entries))
	return nil
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply pending schema migrations and print the resulting schema version.

Example:
  ledger migrate
  ledger migrate --status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			apply := storage.Migrate
			if status {
				apply = storage.Status
			}
			state, err := apply(cfg.DBPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %s\n", state)
			rootOpts.Logger.Info("Schema checked", "db_path", cfg.DBPath, "version", state.Version, "dirty", state.Dirty, "applied", !status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "report the schema version without migrating")
	return cmd
}
