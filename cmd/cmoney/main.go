package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"cmoney/internal/backend"
	"cmoney/internal/cli"
	apphttp "cmoney/internal/http"
	applog "cmoney/internal/log"
	"cmoney/internal/middleware/ratelimit"
)

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Redis shares the rate limit across replicas; without it each process
	// counts on its own.
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		rl, err := ratelimit.NewRedisLimiter(context.Background(), cfg.RedisURL, ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
		if err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory rate limiting", applog.FieldError, err)
		} else {
			limiter = rl
			logger.Info("Using Redis rate limiter")
		}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Services:           result.Services,
		Repository:         result.Repository,
		Logger:             logger,
		Limiter:            limiter,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AuthCacheSize:      cfg.AuthCacheSize,
		AuthCacheTTL:       cfg.AuthCacheTTL,
	})

	_, done := cli.GracefulShutdown(logger.Logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting cmoney server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
