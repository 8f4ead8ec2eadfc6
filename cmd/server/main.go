package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alkime/breathewise/internal/catalog"
	"github.com/alkime/breathewise/internal/config"
	"github.com/alkime/breathewise/internal/guide"
	"github.com/alkime/breathewise/internal/logger"
	"github.com/alkime/breathewise/internal/server"
	"github.com/alkime/breathewise/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	lg := logger.SetupLogger(cfg)

	lg.Info("Starting BreatheWise server",
		"env", cfg.Env,
		"port", cfg.Port,
		"provider", cfg.AIProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("Server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}

	lg.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, lg *slog.Logger) error {
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = loaded
	}

	history, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() {
		if err := history.Close(); err != nil {
			lg.Error("Failed to close history store", "error", err)
		}
	}()
	lg.Debug("Opened history store", "backend", store.DetectDSNType(cfg.DatabaseURL))

	writer, speaker, err := guide.NewClients(ctx, guide.ProvidersFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create AI clients: %w", err)
	}

	svcOpts := []guide.ServiceOption{
		guide.WithHistory(history),
		guide.WithTimeout(cfg.AITimeout),
		guide.WithLogger(lg),
	}
	if speaker != nil {
		svcOpts = append(svcOpts, guide.WithSpeaker(speaker))
	}

	srv := server.New(cfg, lg, server.Deps{
		Catalog: cat,
		Guide:   guide.NewService(writer, svcOpts...),
		History: history,
	})

	return srv.Run(ctx)
}
