package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/target/mmk-interviews/config"
	"github.com/target/mmk-interviews/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.IsDev {
		logger = bootstrap.InitDevLogger()
	}

	logStartupInfo(ctx, logger, &cfg)

	if err = bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}

	redisClient, err := bootstrap.ConnectRedis(bootstrap.RedisOptions{Config: cfg.Redis, Logger: logger})
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	var services bootstrap.ServiceContainer
	if cfg.IsHTTPServerEnabled() {
		services, err = bootstrap.NewServices(&bootstrap.ServiceDeps{
			Config:      &cfg,
			RedisClient: redisClient,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
	} else {
		services.Observability = bootstrap.BuildObservability(logger, cfg.Observability)
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting interviewer service",
		"addr", cfg.HTTP.Addr,
		"frontend_url", cfg.HTTP.FrontendURL,
		"redis_enabled", cfg.Redis.Enabled,
		"staging_dir", cfg.Staging.Dir,
		"enabled_services", bootstrap.GetEnabledServices(cfg))
}
