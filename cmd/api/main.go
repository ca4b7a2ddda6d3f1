package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/cache"
	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/db"
	httpx "github.com/geocoder89/userhub/internal/http"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	store, closeStore, err := openStore(ctx, cfg, prom, log)
	if err != nil {
		return err
	}
	defer closeStore()

	hasher := security.NewHasher(cfg.BcryptCost)

	seedCtx, cancelSeed := config.WithTimeout(ctx, 10*time.Second)
	created, err := db.EnsureAdminUser(seedCtx, store, hasher, cfg)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info("admin user seeded", "email", cfg.AdminEmail)
	}

	tokens, err := auth.NewManager(cfg.JWTSecret)
	if err != nil {
		return err
	}

	statsCache, closeCache := openStatsCache(ctx, cfg, log)
	defer closeCache()

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	var draining atomic.Bool

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Log:                log,
		Store:              store,
		Hasher:             hasher,
		Tokens:             tokens,
		StatsCache:         statsCache,
		Prom:               prom,
		Gatherer:           prometheus.DefaultGatherer,
		Draining:           draining.Load,
		ServiceName:        cfg.ServiceName,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.MaxBodyBytes,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	draining.Store(true)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (httpx.UserStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory user store; data is lost on restart")
		return memory.NewUsersRepo(), func() {}, nil

	case config.StoreDriverPostgres:
		if cfg.RunMigrations {
			if err := db.ApplyMigrations(cfg.DBURL); err != nil {
				return nil, nil, fmt.Errorf("apply migrations: %w", err)
			}
			log.Info("migrations applied")
		}

		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}

		return postgres.NewUsersRepo(pool, prom), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// Redis when configured and reachable, otherwise a process-local cache.
func openStatsCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Store, func()) {
	if cfg.StatsCacheTTL <= 0 {
		return cache.Nop{}, func() {}
	}

	if cfg.RedisAddr == "" {
		return cache.New(cfg.StatsCacheTTL), func() {}
	}

	rc := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.StatsCacheTTL,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rc.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, falling back to in-memory statistics cache", "addr", cfg.RedisAddr, "err", err)
		_ = rc.Close()
		return cache.New(cfg.StatsCacheTTL), func() {}
	}

	return rc, func() { _ = rc.Close() }
}
