package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/sketchbox/internal/api/http"
	"github.com/GriffinCanCode/sketchbox/internal/api/middleware"
	"github.com/GriffinCanCode/sketchbox/internal/api/ws"
	"github.com/GriffinCanCode/sketchbox/internal/app"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/config"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
)

// limiterSweepEvery is how often idle rate limit buckets are dropped.
const limiterSweepEvery = time.Minute

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	app     *app.App
	limiter *middleware.Limiter
	logger  *logging.Logger
	config  *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing sketchbox server",
		zap.String("port", cfg.Server.Port),
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Int("fix_attempts", cfg.Studio.FixAttempts),
	)

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(a), nil
}

// New builds the router around an already wired App.
func New(a *app.App) *Server {
	cfg := a.Config
	logger := a.Logger

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(a.Tracer))
	router.Use(monitoring.Middleware(a.Metrics, "/metrics", "/stream"))

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
	}
	router.Use(middleware.CORS(corsCfg))

	s := &Server{router: router, app: a, logger: logger, config: cfg}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		s.limiter = middleware.NewLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
		router.Use(s.limiter.Middleware())
	}

	handlers := apihttp.NewHandlers(a.Studio, a.Preview, a.History, a.Metrics)
	wsHandler := ws.NewHandler(preview.ConfigFrom(cfg.Sandbox), logger.Named("stream"), a.Metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Sandbox
	router.POST("/preview", handlers.Preview)
	router.GET("/stream", wsHandler.HandleConnection)

	// Studio
	router.POST("/create", handlers.Create)
	router.POST("/share", handlers.Share)
	router.GET("/animation/:id", handlers.Animation)
	router.GET("/feed", handlers.Feed)
	router.POST("/mood", handlers.Mood)

	// Local history
	router.GET("/history", handlers.ListHistory)
	router.GET("/history/:id", handlers.GetHistory)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")
	return s
}

// Router returns the gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Handler is the router behind response compression. The stream route
// bypasses compression so the upgrade can hijack the connection.
func (s *Server) Handler() http.Handler {
	compressed := gzhttp.GzipHandler(s.router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stream" {
			s.router.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.limiter != nil {
		go s.sweep(ctx)
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("Shutting down HTTP server", zap.Duration("timeout", timeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Sweep(); n > 0 {
				s.logger.Debug("Dropped idle rate limit buckets", zap.Int("count", n))
			}
		}
	}
}

// Close releases the App and flushes the logger.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if err := s.app.Close(); err != nil {
		s.logger.Error("Failed to close components", zap.Error(err))
		return err
	}

	_ = s.logger.Sync()
	return nil
}
