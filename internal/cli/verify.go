package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terminally-online/typewriter/internal/docker"
	"github.com/terminally-online/typewriter/internal/introspect"
	"github.com/terminally-online/typewriter/internal/migrate"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every migration applies and rolls back cleanly",
	Long: `Verify the built-in migrations against a temporary Postgres container.

The sum file is validated first. Every migration is then applied and the
resulting schema is checked for the constraints the blog relies on. Finally
the migrations are rolled back in reverse order and applied again, so a broken
down migration is caught before it is needed in production.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		fsys := migrate.Embedded()

		if err := migrate.ValidateSum(fsys); err != nil {
			return fmt.Errorf("sum file validation failed: %w", err)
		}
		fmt.Fprintln(out, "Sum file is valid.")

		dockerCfg := docker.DefaultPostgresConfig()
		dockerCfg.Version = cfg.GetPostgresVersion(&flags)

		fmt.Fprintf(out, "Starting Postgres %s container...\n", dockerCfg.Version)
		container, err := docker.StartPostgres(ctx, dockerCfg)
		if err != nil {
			return fmt.Errorf("failed to start postgres: %w", err)
		}
		defer func() {
			fmt.Fprintln(out, "Stopping container...")
			_ = docker.StopContainer(context.Background(), container.ID)
		}()

		dbURL := container.ConnectionString()

		applied, err := migrate.Up(ctx, dbURL, fsys, migrate.UpOptions{})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Applied %d migration(s).\n", len(applied))

		schema, err := introspect.Database(ctx, dbURL)
		if err != nil {
			return fmt.Errorf("failed to introspect schema: %w", err)
		}
		if missing := schema.Missing(introspect.Requirements); len(missing) > 0 {
			fmt.Fprintln(out, "\nMissing constraints:")
			for _, req := range missing {
				fmt.Fprintf(out, "  - %s\n", req)
			}
			return fmt.Errorf("schema is missing %d required constraint(s)", len(missing))
		}
		if warnings := schema.Lint(); len(warnings) > 0 {
			fmt.Fprintln(out, "\nWarnings:")
			for _, w := range warnings {
				fmt.Fprintf(out, "  %s %s\n", warningStyle.Render("⚠"), w)
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Schema has %d table(s) with the required constraints.\n", len(schema.Tables))

		rollbackable, err := migrate.GetRollbackable(ctx, dbURL, fsys, len(applied))
		if err != nil {
			return err
		}
		for _, m := range rollbackable {
			if err := migrate.Rollback(ctx, dbURL, m); err != nil {
				return fmt.Errorf("failed to rollback migration %s: %w", m.Name, err)
			}
		}
		fmt.Fprintf(out, "Rolled back %d migration(s).\n", len(rollbackable))

		reapplied, err := migrate.Up(ctx, dbURL, fsys, migrate.UpOptions{})
		if err != nil {
			return fmt.Errorf("re-applying after rollback: %w", err)
		}
		if len(reapplied) != len(applied) {
			return fmt.Errorf("re-applied %d migration(s), want %d", len(reapplied), len(applied))
		}

		fmt.Fprintln(out, successStyle.Render("Migrations are valid and reversible."))
		return nil
	},
}
