package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terminally-online/typewriter/internal/migrate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  `Display the status of all migrations, showing which have been applied and which are pending.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, err := cfg.GetDatabaseURL(&flags)
		if err != nil {
			return err
		}
		fsys := migrate.Embedded()
		out := cmd.OutOrStdout()

		applied, err := migrate.GetAppliedWithStatus(cmd.Context(), dbURL, fsys)
		if err != nil {
			return fmt.Errorf("failed to get applied migrations: %w", err)
		}

		pending, err := migrate.GetPending(cmd.Context(), dbURL, fsys)
		if err != nil {
			return fmt.Errorf("failed to get pending migrations: %w", err)
		}

		if jsonOutput {
			return printJSON(out, map[string]any{"applied": applied, "pending": pending})
		}

		if len(applied) == 0 && len(pending) == 0 {
			fmt.Fprintln(out, "No migrations found.")
			return nil
		}

		var modifiedCount int
		if len(applied) > 0 {
			fmt.Fprintln(out, "Applied migrations:")
			for _, m := range applied {
				if m.Modified {
					fmt.Fprintf(out, "  %s %s (applied %s) MODIFIED\n", warningStyle.Render("⚠"), m.Name, m.AppliedAt.Format(timeLayout))
					modifiedCount++
				} else {
					fmt.Fprintf(out, "  %s %s (applied %s)\n", successStyle.Render("✓"), m.Name, m.AppliedAt.Format(timeLayout))
				}
			}
		}

		if len(pending) > 0 {
			if len(applied) > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, "Pending migrations:")
			for _, m := range pending {
				fmt.Fprintf(out, "  ○ %s\n", m.Name)
			}
		}

		if modifiedCount > 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "WARNING: %d migration(s) have been modified after being applied.\n", modifiedCount)
			fmt.Fprintln(out, "This may indicate schema drift. Consider reviewing these changes.")
		}

		return nil
	},
}
