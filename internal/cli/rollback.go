package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terminally-online/typewriter/internal/migrate"
)

var (
	rollbackCount  int
	rollbackDryRun bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback the last applied migration(s)",
	Long:  `Rollback one or more migrations using their corresponding .down.sql files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		dbURL, err := cfg.GetDatabaseURL(&flags)
		if err != nil {
			return err
		}

		rollbackable, err := migrate.GetRollbackable(ctx, dbURL, migrate.Embedded(), rollbackCount)
		if err != nil {
			return fmt.Errorf("failed to get rollbackable migrations: %w", err)
		}

		if len(rollbackable) == 0 {
			fmt.Fprintln(out, "No migrations to rollback.")
			return nil
		}

		fmt.Fprintf(out, "Found %d migration(s) to rollback:\n", len(rollbackable))
		for _, m := range rollbackable {
			fmt.Fprintf(out, "  - %s\n", m.Name)
		}

		if rollbackDryRun {
			fmt.Fprintln(out, "\nDry run mode. No changes applied.")
			fmt.Fprintln(out, "\nRollback SQL that would be executed:")
			for _, m := range rollbackable {
				fmt.Fprintf(out, "\n-- Rollback %s\n%s\n", m.Name, m.Content)
			}
			return nil
		}

		fmt.Fprintln(out)
		for _, m := range rollbackable {
			fmt.Fprintf(out, "Rolling back %s... ", m.Name)
			if err := migrate.Rollback(ctx, dbURL, m); err != nil {
				fmt.Fprintln(out, "FAILED")
				return fmt.Errorf("failed to rollback migration %s: %w", m.Name, err)
			}
			fmt.Fprintln(out, "OK")
		}

		fmt.Fprintf(out, "\nSuccessfully rolled back %d migration(s).\n", len(rollbackable))
		return nil
	},
}

func init() {
	rollbackCmd.Flags().IntVarP(&rollbackCount, "count", "n", 1, "number of migrations to rollback")
	rollbackCmd.Flags().BoolVar(&rollbackDryRun, "dry-run", false, "preview rollback without executing")
}
