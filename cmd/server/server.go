package main

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/kratu/internal/cache"
	"github.com/ZanzyTHEbar/kratu/internal/config"
	"github.com/ZanzyTHEbar/kratu/internal/database"
	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/middleware"
	"github.com/ZanzyTHEbar/kratu/internal/monitoring"
	"github.com/ZanzyTHEbar/kratu/internal/rankings"
	"github.com/ZanzyTHEbar/kratu/internal/ratelimit"
	"github.com/ZanzyTHEbar/kratu/internal/security"
	"github.com/ZanzyTHEbar/kratu/internal/signals"
	"github.com/ZanzyTHEbar/kratu/internal/source"
	"github.com/ZanzyTHEbar/kratu/internal/widget"
)

const cacheKeyPrefix = "kratu:cache:"

// server holds every long-lived dependency of the HTTP service
type server struct {
	cfg    config.Config
	logger *monitoring.Logger

	// registry built from a throwaway library; describes what widgets get
	registry *signals.Registry
	dataset  string
	entities []*kratu.Entity

	widgets     *widget.Manager
	rankings    *rankings.Service
	limiter     *ratelimit.RateLimiter
	redis       *cache.Conn
	store       cache.Store
	db          *database.DB
	metrics     *monitoring.Metrics
	compression *middleware.CompressionMiddleware
	security    *security.SecurityMiddleware
}

// newServer wires the service from cfg. Redis is optional; without it the
// cache and the rate limiter run in memory.
func newServer(cfg config.Config, logger *monitoring.Logger) (*server, error) {
	build, err := source.Build(cfg.Data.Manifest)
	if err != nil {
		return nil, err
	}
	registry, err := build(kratu.New().Capabilities())
	if err != nil {
		return nil, err
	}

	name, entities, err := source.Dataset(cfg.Data.Dataset)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.Data.Dir)
	if err != nil {
		return nil, apperrors.NewConfigurationError("failed to open database", err)
	}

	conn, err := cache.Dial(context.Background(), cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, continuing with in-memory backends", "error", err)
	}
	store := conn.Store(cacheKeyPrefix, cfg.Cache.TTL)

	metrics := monitoring.NewMetrics()
	limiter := ratelimit.NewRateLimiter(conn, ratelimit.Config{
		EventsPerMinute: cfg.RateLimit.EventsPerMinute,
		Burst:           cfg.RateLimit.Burst,
	}, metrics)

	s := &server{
		cfg:         cfg,
		logger:      logger,
		registry:    registry,
		dataset:     name,
		entities:    entities,
		widgets:     widget.NewManager(build, kratu.WithLogger(logger.Logger)),
		rankings:    rankings.NewService(database.NewRepository(db), rankings.NewSnapshotCache(store, metrics)),
		limiter:     limiter,
		redis:       conn,
		store:       store,
		db:          db,
		metrics:     metrics,
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		security:    security.NewSecurityMiddleware(security.DefaultSecurityConfig()),
	}

	logger.SystemLogger("server_initialized", fmt.Sprintf("dataset=%s entities=%d signals=%d redis=%t",
		name, len(entities), registry.Len(), conn.Enabled()))
	return s, nil
}

// close releases resources in reverse order of acquisition
func (s *server) close() {
	s.limiter.Close()
	apperrors.SafeClose(s.store, "cache")
	apperrors.SafeClose(s.redis, "redis")
	apperrors.SafeClose(s.db, "database")
}
