package main

import (
	"go-ems/internal/app"
	"go-ems/internal/config"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := app.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("starting outbox relay and reconcile sweeps",
		zap.String("env", cfg.AppEnv),
		zap.Duration("outbox_poll_interval", cfg.OutboxPollInterval),
		zap.Duration("reconcile_interval", cfg.ReconcileInterval),
	)

	if err := app.RunWorker(cfg); err != nil {
		logger.Fatal("run worker failed", zap.Error(err))
	}
}
