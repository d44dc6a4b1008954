package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"mmr-forecast/predictor"
	"mmr-forecast/webapp"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"

	checkMark = "✅"
	crossMark = "❌"
)

type config struct {
	mode     string
	addr     string
	history  string
	model    string
	server   string
	chartOut string
	logLevel string
}

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	cfg := config{}
	flag.StringVar(&cfg.mode, "mode", "web", "web or cli")
	flag.StringVar(&cfg.addr, "addr", envOr("MMR_ADDR", ":8080"), "listen address for web mode")
	flag.StringVar(&cfg.history, "history", envOr("MMR_HISTORY_CSV", "data/engineered_maternal_mortality.csv"), "historical CSV served by web mode")
	flag.StringVar(&cfg.model, "model", envOr("MMR_MODEL", "data/model.yaml"), "regression model used by web mode")
	flag.StringVar(&cfg.server, "server", envOr("MMR_SERVER_URL", "http://localhost:8080"), "prediction service used by cli mode")
	flag.StringVar(&cfg.chartOut, "chart-out", "mmr_chart.png", "PNG rewritten by cli mode after every change")
	flag.StringVar(&cfg.logLevel, "log-level", envOr("MMR_LOG_LEVEL", "info"), "debug, info, warn or error")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.logLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if strings.EqualFold(cfg.mode, "cli") {
		if err := runCLI(ctx, cfg, logger.With("component", "cli")); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "cli error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	service, err := loadService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load model: %v\n", err)
		os.Exit(1)
	}
	if err := webapp.Run(ctx, cfg.addr, service, logger.With("component", "web")); err != nil {
		fmt.Fprintf(os.Stderr, "web server error: %v\n", err)
		os.Exit(1)
	}
}

func loadService(cfg config) (*predictor.Service, error) {
	model, err := predictor.LoadModel(cfg.model)
	if err != nil {
		return nil, err
	}
	rows, err := predictor.LoadHistory(cfg.history)
	if err != nil {
		return nil, err
	}
	return predictor.NewService(model, rows), nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
