package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"paperscribe/internal/app"
	"paperscribe/internal/config"
	"paperscribe/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; secrets come from the process
	// environment in production.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("PAPERSCRIBE_CONFIG"))
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging.Level)
	logger.Info("starting paperscribe",
		"categories", cfg.ArXiv.Categories,
		"interval", cfg.ArXiv.Interval(),
		"llm_provider", cfg.LLM.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}
