package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iamxdv30/TheOmnitool-sub000/internal/app"
	"github.com/iamxdv30/TheOmnitool-sub000/internal/observability"
	"github.com/iamxdv30/TheOmnitool-sub000/internal/platform/cache"
	"github.com/iamxdv30/TheOmnitool-sub000/internal/tax"
	taxhttp "github.com/iamxdv30/TheOmnitool-sub000/internal/tax/http"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	provinces, err := loadProvinces(cfg.ProvinceRatesFile)
	if err != nil {
		logger.Error("load province rates", slog.Any("error", err))
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.CacheEnabled() {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("result cache disabled", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}

	metrics := observability.NewMetrics()
	var resultCache tax.ResultCache
	if redisClient != nil {
		resultCache = cache.NewVersioned(redisClient, "taxengine", cfg.CacheTTL)
	}
	taxService := tax.NewService(logger, resultCache, metrics)
	taxHandler := taxhttp.NewHandler(logger, taxService, provinces)

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		TaxHandler: taxHandler,
		Metrics:    metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("cache", resultCache != nil))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func loadProvinces(path string) (*tax.ProvinceTable, error) {
	if path == "" {
		return tax.DefaultProvinces(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return tax.LoadProvinces(f)
}
