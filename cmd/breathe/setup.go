package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/charmbracelet/glamour"

	"github.com/alkime/breathewise/internal/catalog"
	"github.com/alkime/breathewise/internal/config"
	"github.com/alkime/breathewise/internal/guide"
	"github.com/alkime/breathewise/internal/keyring"
	"github.com/alkime/breathewise/internal/store"
	"github.com/alkime/breathewise/internal/workdir"
)

// loadConfig reads the environment and fills missing API keys from the
// system keychain. Environment variables take priority.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	cfg.GeminiAPIKey = keyring.Resolve(keyring.Gemini, cfg.GeminiAPIKey)
	cfg.OpenAIAPIKey = keyring.Resolve(keyring.OpenAI, cfg.OpenAIAPIKey)
	cfg.AnthropicAPIKey = keyring.Resolve(keyring.Anthropic, cfg.AnthropicAPIKey)

	return cfg, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	return cat, nil
}

// openHistory opens DATABASE_URL, or a SQLite file in the work directory
// so history survives between CLI runs.
func openHistory(cfg *config.Config) (store.Store, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		root, err := workdir.Root()
		if err != nil {
			return nil, err
		}
		dsn = filepath.Join(root, store.DefaultSQLiteFile)
	}

	history, err := store.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	slog.Debug("opened history", "backend", store.DetectDSNType(dsn))

	return history, nil
}

// newGuide builds the guidance service for the configured provider.
func newGuide(ctx context.Context, cfg *config.Config, history store.Store) (*guide.Service, error) {
	writer, speaker, err := guide.NewClients(ctx, guide.ProvidersFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w. Set it via environment variables or run 'breathe config set-key %s <key>'",
			err, cfg.AIProvider)
	}

	opts := []guide.ServiceOption{
		guide.WithTimeout(cfg.AITimeout),
		guide.WithLogger(slog.Default()),
	}
	if history != nil {
		opts = append(opts, guide.WithHistory(history))
	}
	if speaker != nil {
		opts = append(opts, guide.WithSpeaker(speaker))
	}

	return guide.NewService(writer, opts...), nil
}

func closeHistory(history store.Store) {
	if err := history.Close(); err != nil {
		slog.Error("failed to close history", "error", err)
	}
}

// renderMarkdown renders md for the terminal, falling back to the raw text.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		slog.Debug("markdown renderer unavailable", "error", err)
		return md
	}

	out, err := r.Render(md)
	if err != nil {
		slog.Debug("failed to render markdown", "error", err)
		return md
	}

	return out
}
