package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terminally-online/typewriter/internal/migrate"
)

var (
	dryRun     bool
	forceApply bool
	sumDir     string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply, inspect and roll back the schema migrations built into this binary.

Migrations are checked against typewriter.sum before they run, and a migration
whose content changed after it was applied blocks further migrations unless
--force is given.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations to the database",
	Long:  `Apply all pending migrations to the database in order. Use --dry-run to preview without applying.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, err := cfg.GetDatabaseURL(&flags)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		pending, err := migrate.Up(cmd.Context(), dbURL, migrate.Embedded(), migrate.UpOptions{
			DryRun: dryRun,
			Force:  forceApply,
		})
		for _, m := range pending {
			logger.Debug("migration", zap.String("name", m.Name), zap.Bool("dry_run", dryRun))
		}
		if err != nil {
			if errors.Is(err, migrate.ErrModifiedHistory) {
				fmt.Fprintln(out, warningStyle.Render("⚠ Applied migrations have been modified since they ran."))
				fmt.Fprintln(out, "This may indicate schema drift. Use --force to apply pending migrations anyway.")
			}
			return err
		}

		if len(pending) == 0 {
			fmt.Fprintln(out, "No pending migrations.")
			return nil
		}

		if dryRun {
			fmt.Fprintf(out, "Found %d pending migration(s):\n", len(pending))
			for _, m := range pending {
				fmt.Fprintf(out, "  - %s\n", m.Name)
			}
			fmt.Fprintln(out, "\nDry run mode. No changes applied.")
			return nil
		}

		for _, m := range pending {
			fmt.Fprintf(out, "  %s %s\n", successStyle.Render("✓"), m.Name)
		}
		fmt.Fprintf(out, "\nApplied %d migration(s).\n", len(pending))
		return nil
	},
}

var migrateSumCmd = &cobra.Command{
	Use:   "sum",
	Short: "Regenerate the migrations sum file",
	Long: `Recompute typewriter.sum for a migrations directory on disk. Run this after
adding a migration to internal/migrate/migrations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := migrate.UpdateSum(sumDir); err != nil {
			return fmt.Errorf("failed to update sum file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s/%s\n", sumDir, migrate.SumFile)
		return nil
	},
}

func init() {
	migrateUpCmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview migrations without applying")
	migrateUpCmd.Flags().BoolVar(&forceApply, "force", false, "apply even if previous migrations have been modified")
	migrateSumCmd.Flags().StringVar(&sumDir, "dir", "internal/migrate/migrations", "migrations directory")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(statusCmd)
	migrateCmd.AddCommand(rollbackCmd)
	migrateCmd.AddCommand(verifyCmd)
	migrateCmd.AddCommand(migrateSumCmd)
}
