package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ServerConfig struct {
	Addr           string
	AllowedOrigins string
	RequestTimeout time.Duration
	RateLimit      int
	RateWindow     time.Duration
	CacheTTL       time.Duration
	CacheMaxSize   int
	TrustProxy     bool
}

type Server struct {
	cfg     ServerConfig
	http    *http.Server
	cache   *QueryCache
	limiter *RateLimiter
	log     *zap.Logger
}

// NewServer wires the handler behind CORS, rate limiting and request logging.
func NewServer(cfg ServerConfig, router *Router, db Pinger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	cache := NewQueryCache(cfg.CacheTTL, cfg.CacheMaxSize)
	limiter := NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	limiter.TrustProxy = cfg.TrustProxy
	handler := NewHandler(router, cache, db, cfg.RequestTimeout, logger)

	mux := http.NewServeMux()
	mux.Handle("/", handler)

	var root http.Handler = mux
	root = limiter.Middleware(root)
	root = CORSMiddleware(cfg.AllowedOrigins)(root)
	root = RequestLogger(logger)(root)

	return &Server{
		cfg:     cfg,
		cache:   cache,
		limiter: limiter,
		log:     logger,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      root,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: cfg.RequestTimeout + 10*time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.cache.Close()
	defer s.limiter.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("starting API server", zap.String("addr", s.cfg.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

// Close releases background resources of a server that was never run.
func (s *Server) Close() {
	s.cache.Close()
	s.limiter.Close()
}
