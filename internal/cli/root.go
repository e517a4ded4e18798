package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terminally-online/typewriter/internal/client"
	"github.com/terminally-online/typewriter/internal/config"
	"github.com/terminally-online/typewriter/internal/draft"
	"github.com/terminally-online/typewriter/internal/logging"
)

var (
	cfgFile    string
	cfg        *config.Config
	flags      config.Flags
	verbose    bool
	jsonOutput bool
	logger     = zap.NewNop()
	version    = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "typewriter",
	Short: "Minimal blog backend and client",
	Long: `Typewriter serves blog posts and categories over a small RPC API backed
by PostgreSQL, and talks to that API from the command line.

Drafts are kept on this machine until they are published.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.LoadOrEmpty(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = logging.New(cfg.GetLogLevel(&flags), verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "typewriter %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "typewriter.yaml", "config file path (.yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&flags.URL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().StringVar(&flags.ServerURL, "server", "", "API server URL used by client commands")
	rootCmd.PersistentFlags().StringVar(&flags.DraftsPath, "drafts", "", "path to the local drafts database")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.PostgresVersion, "postgres-version", "", "postgres version for Docker containers")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(devCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() *client.Client {
	return client.New(cfg.GetServerURL(&flags))
}

func openDrafts() (draft.Store, error) {
	store, err := draft.OpenSQLite(cfg.GetDraftsPath(&flags))
	if err != nil {
		return nil, fmt.Errorf("failed to open drafts: %w", err)
	}
	return store, nil
}

func SetVersion(v string) {
	version = v
}

func Execute() error {
	return rootCmd.Execute()
}

func Root() *cobra.Command {
	return rootCmd
}
