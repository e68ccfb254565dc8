package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/Ofi-Services/unified-backend/internal/cache"
	"github.com/Ofi-Services/unified-backend/internal/config"
	"github.com/Ofi-Services/unified-backend/internal/observability"
	"github.com/Ofi-Services/unified-backend/internal/random"
	"github.com/Ofi-Services/unified-backend/internal/store"
	"github.com/Ofi-Services/unified-backend/internal/vocabulary"
)

const serviceName = "procmine"

// metricsRegisterer receives the collectors of every command. Tests swap it
// for a fresh registry.
var metricsRegisterer prometheus.Registerer = prometheus.DefaultRegisterer

// app holds the dependencies every command shares.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	store   store.Store
	cache   cache.Cache

	closers         []func() error
	tracingShutdown func(context.Context) error
}

// bootstrap loads the configuration, applies mutate to it, and opens the
// logger, tracing, metrics, store and cache.
func bootstrap(ctx context.Context, opts *rootOptions, mutate func(*config.Config)) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Observability.LogLevel = opts.logLevel
	}
	if mutate != nil {
		mutate(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, usageError{fmt.Errorf("config: validation: %w", err)}
		}
	}

	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	a.tracingShutdown, err = observability.InitTracing(ctx, cfg.Observability.Tracing, serviceName, version)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	a.metrics = observability.InitMetrics(metricsRegisterer)

	a.store, err = openStore(ctx, cfg.Store)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.closers = append(a.closers, a.store.Close)
	logger.Info("store opened", zap.String("driver", cfg.Store.Driver))

	var closeCache func() error
	a.cache, closeCache, err = openCache(ctx, cfg.Cache)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	if closeCache != nil {
		a.closers = append(a.closers, closeCache)
	}
	return a, nil
}

// close releases the store and cache and flushes telemetry.
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("close failed", zap.Error(err))
		}
	}
	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(ctx); err != nil {
			a.logger.Error("tracing shutdown error", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// flushCache drops every cached response after the event log changed.
func (a *app) flushCache(ctx context.Context) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Flush(ctx); err != nil {
		a.metrics.RecordCacheError()
		a.logger.Warn("response cache flush failed", zap.Error(err))
		return
	}
	a.logger.Info("response cache flushed")
}

// vocabulary returns the configured vocabulary, or the embedded one.
func (a *app) vocabulary() (*vocabulary.Vocabulary, error) {
	if path := a.cfg.Simulation.VocabularyFile; path != "" {
		return vocabulary.Load(path)
	}
	return vocabulary.Default()
}

// randomSource returns the run's random source. A zero seed is replaced by
// the wall clock and logged so the run can be reproduced.
func (a *app) randomSource() random.Source {
	seed := a.cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	a.logger.Info("random source seeded", zap.Uint64("seed", seed))
	return random.New(seed)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemoryStore(), nil
	case config.DriverSQLite:
		s, err := store.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := store.OpenPostgres(ctx, cfg.ResolvedDSN(), cfg.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
}

// openCache returns a nil cache for the none driver.
func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, func() error, error) {
	switch cfg.Driver {
	case config.CacheNone, "":
		return nil, nil, nil
	case config.CacheMemory:
		return cache.NewMemoryCache(clock.RealClock{}), nil, nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("cache: ping redis %s: %w", cfg.Redis.Addr, err)
		}
		return cache.NewRedisCache(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache driver: %q", cfg.Driver)
	}
}
