package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terminally-online/typewriter/internal/docker"
	"github.com/terminally-online/typewriter/internal/migrate"
)

var (
	devPort      string
	devSeed      string
	devDetach    bool
	devNoMigrate bool
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Local development helpers",
}

var devDBCmd = &cobra.Command{
	Use:   "db",
	Short: "Start a disposable Postgres in Docker",
	Long: `Start a Postgres container with the schema applied and print its URL.

The container is removed when the command exits, unless --detach is given;
detached containers are stopped with "typewriter dev stop".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		out := cmd.OutOrStdout()

		dockerCfg := docker.DefaultPostgresConfig()
		dockerCfg.Version = cfg.GetPostgresVersion(&flags)
		dockerCfg.Port = devPort

		fmt.Fprintf(out, "Starting Postgres %s container...\n", dockerCfg.Version)
		container, err := docker.StartPostgres(ctx, dockerCfg)
		if err != nil {
			return fmt.Errorf("failed to start postgres: %w", err)
		}
		keep := false
		defer func() {
			if keep {
				return
			}
			fmt.Fprintln(out, "Stopping container...")
			_ = docker.StopContainer(context.Background(), container.ID)
		}()

		dbURL := container.ConnectionString()

		if !devNoMigrate {
			applied, err := migrate.Up(ctx, dbURL, migrate.Embedded(), migrate.UpOptions{})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Applied %d migration(s).\n", len(applied))
		}

		if devSeed != "" {
			if err := docker.ExecuteSQLFile(ctx, container, devSeed); err != nil {
				return err
			}
			fmt.Fprintf(out, "Seeded from %s.\n", devSeed)
		}

		logger.Info("dev database ready", zap.String("container", container.ID), zap.String("port", container.Port))
		fmt.Fprintf(out, "\nDATABASE_URL=%s\n", dbURL)

		if devDetach {
			keep = true
			fmt.Fprintf(out, "\nContainer %s left running. Stop it with: typewriter dev stop\n", shortID(container.ID))
			return nil
		}

		fmt.Fprintln(out, "\nPress Ctrl+C to stop.")
		<-ctx.Done()
		return nil
	},
}

var devStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop every detached dev database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := docker.ListContainers(cmd.Context())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No dev databases running.")
			return nil
		}
		for _, id := range ids {
			if err := docker.StopContainer(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s.\n", shortID(id))
		}
		return nil
	},
}

var devResetCmd = &cobra.Command{
	Use:   "reset <container-id>",
	Short: "Drop every table in a dev database",
	Long: `Drop the public schema of a dev database, migrations record included.
Run "typewriter migrate up" afterwards to recreate the tables.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := docker.ResetDatabase(cmd.Context(), docker.Attach(args[0])); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s.\n", shortID(args[0]))
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func init() {
	devDBCmd.Flags().StringVar(&devPort, "port", "", "host port to publish (default: a free port)")
	devDBCmd.Flags().StringVar(&devSeed, "seed", "", "SQL file to run after migrating")
	devDBCmd.Flags().BoolVar(&devDetach, "detach", false, "leave the container running and exit")
	devDBCmd.Flags().BoolVar(&devNoMigrate, "no-migrate", false, "skip applying migrations")

	devCmd.AddCommand(devDBCmd)
	devCmd.AddCommand(devStopCmd)
	devCmd.AddCommand(devResetCmd)
}
