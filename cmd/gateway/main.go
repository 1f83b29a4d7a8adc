package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/gateway"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}
	cache := initCache(redisClient, logger)

	client, err := gateway.NewClient(cfg.Gateway, logger)
	if err != nil {
		return err
	}
	gw := gateway.New(cfg.Gateway, client, cache, logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go func() {
			if err := metrics.Serve(ctx, cfg.Gateway.MetricsPort, logger); err != nil {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- gw.Start()
	}()
	logger.Info().
		Int("http_port", cfg.Gateway.HTTP.Port).
		Str("server_url", cfg.Gateway.ServerURL).
		Dur("cache_ttl", cfg.Gateway.CacheTTL).
		Msg("ShareIt gateway started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("gateway stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = gw.Shutdown(shutdownCtx)

	logger.Info().Msg("ShareIt gateway stopped")
	return runErr
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "gateway-main"), closer, nil
}

func initRedis(ctx context.Context, cfg config.RedisConfig, logger *zerolog.Logger) *redis.Client {
	if cfg.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, response cache stays in memory")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Address).Msg("redis connected")
	return client
}

// initCache prefers redis and falls back to process memory when redis is absent or fails later.
func initCache(client *redis.Client, logger *zerolog.Logger) domain.ResponseCache {
	memory := repository.NewMemoryResponseCache()
	if client == nil {
		return memory
	}
	return repository.NewFailoverResponseCache(
		repository.NewRedisResponseCache(client),
		memory,
		logging.Component(logger, "response-cache"),
	)
}
