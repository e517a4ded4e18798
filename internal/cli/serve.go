package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terminally-online/typewriter/internal/api"
	"github.com/terminally-online/typewriter/internal/migrate"
	"github.com/terminally-online/typewriter/internal/service"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	Long: `Serve the post, category and post/category procedures under /trpc/ and a
health check under /health.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dbURL, err := cfg.GetDatabaseURL(&flags)
		if err != nil {
			return err
		}

		if serveMigrate {
			applied, err := migrate.Up(ctx, dbURL, migrate.Embedded(), migrate.UpOptions{})
			if err != nil {
				return err
			}
			logger.Info("migrations applied", zap.Int("count", len(applied)))
		}

		poolCfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			return fmt.Errorf("invalid database url: %w", err)
		}
		poolCfg.MaxConns = cfg.GetPoolMaxConns()

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		svc := service.New(pool, logger)
		router := api.NewRouter(svc.Posts, svc.Categories, svc.PostCategories)

		srv := api.NewServer(api.ServerConfig{
			Addr:           cfg.GetListenAddr(&flags),
			AllowedOrigins: cfg.GetAllowedOrigins(),
			RequestTimeout: cfg.GetRequestTimeout(),
			RateLimit:      cfg.GetRateLimit(),
			RateWindow:     cfg.GetRateWindow(),
			CacheTTL:       cfg.GetCacheTTL(),
			CacheMaxSize:   cfg.GetCacheMaxSize(),
			TrustProxy:     cfg.TrustProxy,
		}, router, pool, logger)

		logger.Info("registered procedures", zap.Strings("procedures", router.Names()))
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flags.ListenAddr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
}
