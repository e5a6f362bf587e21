package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/app"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/config"
	pkgconfig "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/config"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/logger"
)

func main() {
	// A local .env is optional; real environment variables take precedence.
	dotEnvErr := pkgconfig.LoadDotEnv()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger.
	log := logger.New("feedback-service", cfg.LogLevel)
	if dotEnvErr != nil {
		log.Warn("ignoring .env file", slog.String("error", dotEnvErr.Error()))
	}
	if _, ok := logger.ParseLevel(cfg.LogLevel); !ok {
		log.Warn("unknown LOG_LEVEL, using info", slog.String("log_level", cfg.LogLevel))
	}
	log.Info("starting feedback service",
		slog.String("environment", cfg.Environment),
		slog.String("version", cfg.Version),
		slog.Int("http_port", cfg.HTTPPort),
	)

	// Create the application with all dependencies wired.
	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run the application. This blocks until shutdown.
	if err := application.Run(ctx); err != nil {
		log.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("feedback service stopped")
}
