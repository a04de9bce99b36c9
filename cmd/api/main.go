package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"college/internal/announcement"
	"college/internal/api"
	"college/internal/attendance"
	"college/internal/auth"
	"college/internal/config"
	"college/internal/httpmiddleware"
	"college/internal/observability"
	"college/internal/store"
	"college/internal/users"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.LogFormat)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	production := cfg.Env == "production" || cfg.Env == "prod"
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runHTTP(ctx, cfg, logger, production); err != nil {
		logger.Error("http server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func runHTTP(ctx context.Context, cfg config.App, logger *slog.Logger, production bool) error {
	db, err := store.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	hasher, err := auth.NewHasher(cfg.BcryptCost, cfg.HashConcurrency)
	if err != nil {
		return err
	}
	if cfg.SeedDemoData {
		if err := db.Seed(ctx, hasher.Hash); err != nil {
			return err
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	var limiter httpmiddleware.Limiter
	if cfg.RateLimitPerMin > 0 {
		if cfg.RateLimitBackend == "redis" {
			limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin)
		} else {
			limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
		}
	}

	tokens := auth.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	dir := users.NewDirectory(db.Client)

	router := api.NewRouter(api.Deps{
		Auth:          auth.NewService(dir, hasher, tokens, logger),
		Tokens:        tokens,
		Users:         dir,
		Attendance:    attendance.NewService(db.Client),
		Announcements: announcement.NewService(db.Client),
		DB:            db,
		Redis:         redisClient,
		Limiter:       limiter,
		Metrics:       observability.NewMetrics(),
		Logger:        logger,
		Realm:         cfg.JWTRealm,
		CORSOrigins:   cfg.CORSOrigins,
		Production:    production,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Env),
			slog.String("db_driver", db.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		// Give outstanding requests 10 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
