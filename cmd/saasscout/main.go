package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SaasScout/internal/app"
	"SaasScout/internal/config"
	"SaasScout/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.File)

	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(ctx, command); err != nil {
		logger.Error("command failed", "command", command, "error", err)
		application.Close()
		os.Exit(1)
	}
}
