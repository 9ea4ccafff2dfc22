package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"homeportal/internal/storage"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.SQLiteDBPath
			if err := storage.RunMigrations(path); err != nil {
				return err
			}
			version, dirty, err := storage.MigrationVersion(path)
			if err != nil {
				return fmt.Errorf("read migration version: %w", err)
			}
			a.logger.Info("Migrations applied", "path", path, "version", version, "dirty", dirty)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}
