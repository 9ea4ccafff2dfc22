package cli

import (
	"github.com/spf13/cobra"

	"homeportal/internal/config"
	applog "homeportal/internal/log"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// app carries what PersistentPreRunE prepared for the subcommands.
type app struct {
	cfg    *config.Config
	logger *applog.Logger
}

func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	LoadEnvFile()

	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger, err := SetupLogger(cfg)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.WithComponent(applog.ComponentApp)
	return nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:               "homeportal",
		Short:             "Household portal backend",
		Version:           Version,
		PersistentPreRunE: a.prepare,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newImportCommand(a),
		newSummaryCommand(a),
		newWorkerCommand(a),
	)

	return rootCmd
}

// NewWorkerRootCommand runs the queue consumer as a standalone binary.
func NewWorkerRootCommand() *cobra.Command {
	a := &app{}
	cmd := newWorkerCommand(a)
	cmd.Use = "homeportal-worker"
	cmd.Version = Version
	cmd.PersistentPreRunE = a.prepare
	cmd.SilenceUsage = true
	return cmd
}
