package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"homeportal/internal/assets"
	"homeportal/internal/services"
	"homeportal/internal/storage/memory"
)

func newImportCommand(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import asset snapshots from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			var store assets.SnapshotStore
			if dryRun {
				store = memory.New()
			} else {
				repo, err := InitSQLite(a.logger, a.cfg.SQLiteDBPath)
				if err != nil {
					return err
				}
				defer repo.Close()
				store = repo
			}

			svc := services.NewAssetService(store, nil, nil, a.logger)
			outcome, err := svc.Import(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), outcome)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate rows without writing to the database")
	return cmd
}

func newSummaryCommand(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print per-month, per-currency balance totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Reject bad months before opening the database.
			if _, err := assets.MonthRange(from, to); err != nil {
				return err
			}
			repo, err := InitSQLite(a.logger, a.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			items, err := services.NewAssetService(repo, nil, nil, a.logger).Summary(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"items": items})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first month to include (YYYY-MM)")
	cmd.Flags().StringVar(&to, "to", "", "last month to include (YYYY-MM)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
