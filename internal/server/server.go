// Package server exposes the miner over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/subnet-miner/internal/dispatch"
	"github.com/ppiankov/subnet-miner/internal/metrics"
	"github.com/ppiankov/subnet-miner/internal/store"
	"github.com/ppiankov/subnet-miner/internal/worker"
)

// Config configures the HTTP surface
type Config struct {
	Addr string

	// RequestsPerSecond and Burst throttle each client IP; zero disables throttling
	RequestsPerSecond float64
	Burst             int

	ShutdownTimeout time.Duration
	MinerVersion    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:              ":8091",
		RequestsPerSecond: 5,
		Burst:             10,
		ShutdownTimeout:   30 * time.Second,
	}
}

// Deps are the components the handlers call into. Metrics and History are optional.
type Deps struct {
	Processor *dispatch.Processor
	Metrics   *metrics.Metrics
	History   *store.History
	Logger    *slog.Logger
}

// Server serves verification requests
type Server struct {
	cfg       Config
	processor *dispatch.Processor
	metrics   *metrics.Metrics
	history   *store.History
	limiter   *worker.Limiter
	validate  *validator.Validate
	router    *gin.Engine
	log       *slog.Logger
}

// New creates a server and registers its routes
func New(cfg Config, deps Deps) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		processor: deps.Processor,
		metrics:   deps.Metrics,
		history:   deps.History,
		limiter:   worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		validate:  newValidator(),
		log:       log,
	}
	s.router = s.routes()
	return s
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.log))

	router.GET("/health", s.health)
	router.GET("/stats", s.stats)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	}

	router.POST("/verify", rateLimit(s.limiter, s.metrics), s.verify)
	if s.history != nil {
		router.GET("/responses/:proof_hash", s.lookupResponse)
	}

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.log.Info("miner server started", "addr", s.cfg.Addr)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server exited")
	return nil
}
