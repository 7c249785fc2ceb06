package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/BenGothard/PDF-Text-Extractor/internal/api"
	"github.com/BenGothard/PDF-Text-Extractor/internal/bus"
	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
	"github.com/BenGothard/PDF-Text-Extractor/internal/convert"
	"github.com/BenGothard/PDF-Text-Extractor/internal/extract"
	"github.com/BenGothard/PDF-Text-Extractor/internal/history"
	"github.com/BenGothard/PDF-Text-Extractor/internal/natsserver"
	"github.com/BenGothard/PDF-Text-Extractor/internal/runtime"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "pdf2mp3.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedded, err := natsserver.Start(cfg.Bus, logger)
	if err != nil {
		logger.Error("failed to start embedded bus", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer embedded.Shutdown()

	var (
		busClient   *bus.Client
		readyChecks []runtime.ReadyCheck
	)
	if cfg.Bus.Enabled {
		busClient, err = bus.Connect(ctx, cfg.Bus, logger)
		if err != nil {
			logger.Error("failed to connect to bus", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer busClient.Close()
		readyChecks = append(readyChecks, busClient.Healthy)
	}

	hist, err := history.Open(ctx, cfg.History, logger)
	if err != nil {
		logger.Error("failed to open history store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer hist.Close()

	loader := extract.NewLoader(cfg.Extract, logger)
	conv := convert.New(cfg, busClient, hist, logger)
	handler := api.New(cfg, loader, conv, hist, logger)

	rt := runtime.New(cfg, logger, handler, readyChecks...)
	if err := rt.Start(ctx); err != nil {
		logger.Error("runtime exited with error", slog.String("error", err.Error()))
		time.Sleep(1 * time.Second)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
