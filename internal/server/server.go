// Package server wires the companion's components together and runs the
// HTTP service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	api "github.com/lumenlabs/companion/internal/api/http"
	"github.com/lumenlabs/companion/internal/config"
	"github.com/lumenlabs/companion/internal/heartbeat"
	"github.com/lumenlabs/companion/internal/httpx"
	"github.com/lumenlabs/companion/internal/logging"
	"github.com/lumenlabs/companion/internal/memory"
	"github.com/lumenlabs/companion/internal/middleware"
	"github.com/lumenlabs/companion/internal/monitoring"
	"github.com/lumenlabs/companion/internal/providers/directory"
	"github.com/lumenlabs/companion/internal/providers/files"
	memprov "github.com/lumenlabs/companion/internal/providers/memory"
	"github.com/lumenlabs/companion/internal/providers/scraper"
	"github.com/lumenlabs/companion/internal/providers/tasks"
	"github.com/lumenlabs/companion/internal/reflection"
	"github.com/lumenlabs/companion/internal/sandbox"
	"github.com/lumenlabs/companion/internal/service"
	"github.com/lumenlabs/companion/internal/ws"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	cfg      *config.Config
	log      *logging.Logger
	router   *gin.Engine
	http     *http.Server
	guard    *sandbox.Guard
	registry *service.Registry
	pulse    *heartbeat.Service
}

// New builds a fully wired server. Sandbox root creation is the only
// fatal startup failure; everything else degrades.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	metrics := monitoring.NewMetrics()

	guard, err := sandbox.New(cfg.Sandbox.Root)
	if err != nil {
		return nil, fmt.Errorf("sandbox init failed: %w", err)
	}
	log.Info("sandbox ready", zap.String("root", guard.Root()))

	// Embeddings are optional; without them memory search degrades to
	// text matching.
	var memOpts []memory.Option
	memOpts = append(memOpts, memory.WithMetrics(metrics))
	if embedder := memory.NewHTTPEmbedder(cfg.Embeddings, metrics); embedder != nil {
		memOpts = append(memOpts, memory.WithEmbedder(embedder))
		log.Info("embeddings enabled", zap.String("url", cfg.Embeddings.URL))
	} else {
		log.Info("embeddings disabled, memory search uses text matching")
	}

	mem, err := memory.NewStore(filepath.Join(guard.Root(), "memory.json"), log, memOpts...)
	if err != nil {
		return nil, fmt.Errorf("memory store init failed: %w", err)
	}

	taskStore, err := tasks.NewStore(filepath.Join(guard.Root(), "tasks.json"))
	if err != nil {
		return nil, fmt.Errorf("task store init failed: %w", err)
	}

	registry := service.NewRegistry()
	register := func(name string, p service.Provider) {
		if err := registry.Register(p); err != nil {
			log.Warn("provider registration failed", zap.String("service", name), zap.Error(err))
			return
		}
		log.Info("provider registered", zap.String("service", name))
	}
	register("files", files.NewProvider(guard, metrics))
	register("directory", directory.NewProvider(guard, metrics))
	register("scraper", scraper.NewProvider(httpx.New(), metrics))
	register("tasks", tasks.NewProvider(taskStore))
	register("memory", memprov.NewProvider(mem))

	reflector := reflection.NewService(mem, log, metrics)
	wsHandler := ws.NewHandler(log, metrics)
	pulse := heartbeat.NewService(cfg.Heartbeat, log, metrics,
		heartbeat.WithReflector(reflector),
		heartbeat.WithNotify(wsHandler.BroadcastPulse),
	)

	if cfg.Logging.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(monitoring.Middleware(metrics))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(registry, mem, taskStore, pulse, reflector, guard, log.Ring())
	api.RegisterRoutes(router, handlers)
	router.GET("/stream", wsHandler.Stream)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		cfg:      cfg,
		log:      log,
		router:   router,
		guard:    guard,
		registry: registry,
		pulse:    pulse,
	}, nil
}

// Router exposes the gin engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the heartbeat and serves HTTP until the listener fails
func (s *Server) Run() error {
	if s.cfg.Heartbeat.Enabled {
		s.pulse.Start()
	}

	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.log.Info("server listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the heartbeat and drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.pulse.Stop()
	if s.http == nil {
		return nil
	}
	s.log.Info("server shutting down")
	return s.http.Shutdown(ctx)
}
