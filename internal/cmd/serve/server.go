package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/openclaw/vivian-memory/internal/config"
	"github.com/openclaw/vivian-memory/internal/plugin/route/memories"
	"github.com/openclaw/vivian-memory/internal/plugin/route/search"
	"github.com/openclaw/vivian-memory/internal/plugin/route/stats"
	routesystem "github.com/openclaw/vivian-memory/internal/plugin/route/system"
	"github.com/openclaw/vivian-memory/internal/plugin/route/viz"
	storemetrics "github.com/openclaw/vivian-memory/internal/plugin/store/metrics"
	registrycache "github.com/openclaw/vivian-memory/internal/registry/cache"
	registryembed "github.com/openclaw/vivian-memory/internal/registry/embed"
	registrymigrate "github.com/openclaw/vivian-memory/internal/registry/migrate"
	registryroute "github.com/openclaw/vivian-memory/internal/registry/route"
	registrystore "github.com/openclaw/vivian-memory/internal/registry/store"
	registryvector "github.com/openclaw/vivian-memory/internal/registry/vector"
	"github.com/openclaw/vivian-memory/internal/security"
	"github.com/openclaw/vivian-memory/internal/service"
)

// Server holds the running server and its subsystems.
type Server struct {
	Config  *config.Config
	Store   registrystore.MemoryStore
	Service *service.MemoryService
	Router  *gin.Engine
	HTTP    *http.Server
}

// Shutdown gracefully shuts down the server and waits for in-flight
// access-stat updates to land.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTP.Shutdown(ctx)
	s.Service.DrainAccessUpdates()
	return err
}

// StartServer initializes all subsystems and starts the HTTP server.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log.Info("Starting memory API",
		"httpPort", cfg.Port,
		"db", cfg.DatastoreType,
		"vector", cfg.VectorType,
		"embedding", cfg.EmbedType,
		"cache", cfg.CacheType,
	)

	// Initialize Prometheus metrics with configured constant labels.
	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	// Run migrations
	if err := registrymigrate.RunAll(ctx); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	// Initialize store
	storeLoader, err := registrystore.Select(cfg.DatastoreType)
	if err != nil {
		return nil, err
	}
	store, err := storeLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	store = storemetrics.Wrap(store)

	// Initialize embedder
	embedLoader, err := registryembed.Select(cfg.EmbedType)
	if err != nil {
		return nil, err
	}
	embedder, err := embedLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	// Initialize vector index
	vectorLoader, err := registryvector.Select(cfg.VectorType)
	if err != nil {
		return nil, err
	}
	vectorIndex, err := vectorLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	// Initialize the query-embedding cache (optional).
	opts := []service.Option{service.WithAccessUpdateTimeout(cfg.AccessUpdateTimeout)}
	if cacheLoader, err := registrycache.Select(cfg.CacheType); err != nil {
		log.Warn("Cache not available", "cache", cfg.CacheType, "err", err)
	} else if embedCache, err := cacheLoader(ctx); err != nil {
		log.Warn("Failed to initialize cache", "cache", cfg.CacheType, "err", err)
	} else if embedCache.Available() {
		opts = append(opts, service.WithEmbeddingCache(embedCache))
	}

	svc := service.New(store, vectorIndex, embedder, opts...)

	// Set up gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ManagementAccessLog {
		router.Use(security.AccessLogMiddleware())
	} else {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	if cfg.CORSEnabled {
		router.Use(corsMiddleware(cfg.CORSOrigins))
	}

	// Mount main route plugins on the main router.
	for _, loader := range registryroute.MainRouteLoaders() {
		if err := loader(router); err != nil {
			return nil, fmt.Errorf("failed to load routes: %w", err)
		}
	}

	// Create shared token resolver and auth middleware.
	resolver := security.NewTokenResolver(cfg)
	auth := security.AuthMiddleware(resolver)

	// Mount API routes
	memories.MountRoutes(router, svc, auth)
	search.MountRoutes(router, svc, auth)
	stats.MountRoutes(router, svc, auth)
	viz.MountRoutes(router, svc)

	// Mount management route plugins on the main router.
	for _, loader := range registryroute.ManagementRouteLoaders() {
		if err := loader(router); err != nil {
			return nil, fmt.Errorf("failed to load management routes: %w", err)
		}
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "err", err)
		}
	}()

	log.Info("Server listening", "port", cfg.Port)

	routesystem.MarkReady()
	return &Server{
		Config:  cfg,
		Store:   store,
		Service: svc,
		Router:  router,
		HTTP:    httpServer,
	}, nil
}
