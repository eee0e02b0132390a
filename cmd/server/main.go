package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/api"
	"github.com/nayeon729/humanmakehub/internal/config"
	"github.com/nayeon729/humanmakehub/internal/db"
	"github.com/nayeon729/humanmakehub/internal/identity"
	"github.com/nayeon729/humanmakehub/internal/middleware"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/nayeon729/humanmakehub/internal/observ"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"github.com/nayeon729/humanmakehub/internal/repository/memory"
	"github.com/nayeon729/humanmakehub/internal/repository/postgres"
	"github.com/nayeon729/humanmakehub/internal/session"
	"github.com/nayeon729/humanmakehub/internal/stream"
	"github.com/nayeon729/humanmakehub/internal/workflow"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ---------------------------------------------------------------
	// 3. Storage
	// ---------------------------------------------------------------
	var (
		store  repository.Store
		health func(ctx context.Context) error
	)
	switch cfg.Storage {
	case "postgres":
		database, err := db.New(ctx, cfg.DatabaseURL, db.PoolOptions{
			MaxConns:       int32(cfg.DBMaxConns),
			MinConns:       int32(cfg.DBMinConns),
			ConnectTimeout: 10 * time.Second,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		if cfg.AutoMigrate {
			if err := database.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}
		store = postgres.NewStore(database.Pool())
		health = database.Health
	case "memory":
		logger.Warn("using in-memory storage; data is lost on restart")
		store = memory.NewStore()
	default:
		return fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}

	// ---------------------------------------------------------------
	// 4. Redis: role cache and live alerts. Both are optional; without
	//    Redis roles are read from the database on every request and
	//    alerts are only available by polling.
	// ---------------------------------------------------------------
	var (
		redisClient *redis.Client
		cache       identity.Cache
		publisher   notify.Publisher
	)
	if cfg.RedisURL != "" {
		redisClient, err = session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache and live alerts", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			cache = session.NewRoleCache(redisClient, cfg.RoleCacheTTL)
			publisher = notify.NewRedisPublisher(redisClient)
		}
	}

	// ---------------------------------------------------------------
	// 5. Services
	// ---------------------------------------------------------------
	resolver := identity.NewResolver(store, cache, logger)
	service := workflow.NewService(store, workflow.Options{
		FrontBaseURL: cfg.FrontBaseURL,
		Invalidator:  resolver,
	}, logger)
	dispatcher := notify.NewDispatcher(store.Alerts(), publisher, logger)

	authLimiter := middleware.NewRateLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst)
	go authLimiter.RunCleanup(ctx, time.Minute, 10*time.Minute)

	var alertStream gin.HandlerFunc
	if redisClient != nil {
		alertStream = stream.NewHandler(redisClient, cfg.CORSOrigins, logger).Serve
	}

	// ---------------------------------------------------------------
	// 6. HTTP server
	// ---------------------------------------------------------------
	router := api.NewRouter(api.RouterConfig{
		Store:       store,
		Service:     service,
		Dispatcher:  dispatcher,
		Resolver:    resolver,
		JWTSecret:   cfg.JWTSecret,
		TokenTTL:    cfg.TokenTTL,
		CORSOrigins: cfg.CORSOrigins,
		AuthLimiter: authLimiter,
		AlertStream: alertStream,
		Health:      health,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HumanMakeHub",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("storage", cfg.Storage),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ---------------------------------------------------------------
	// 7. Graceful shutdown
	// ---------------------------------------------------------------
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
