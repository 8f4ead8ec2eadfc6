package guide

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alkime/breathewise/internal/config"
)

// Providers selects and configures the remote AI services.
type Providers struct {
	Provider        string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	TextModel       string
	Voice           string
}

// ProvidersFromConfig copies the provider settings out of cfg.
func ProvidersFromConfig(cfg *config.Config) Providers {
	return Providers{
		Provider:        cfg.AIProvider,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		TextModel:       cfg.TextModel,
		Voice:           cfg.TTSVoice,
	}
}

// NewClients builds the writer and speaker for the selected provider. The
// speaker is nil when the provider cannot speak and no fallback is
// configured; guidance audio is then unavailable.
func NewClients(ctx context.Context, p Providers, opts ...ClientOption) (Writer, Speaker, error) {
	opts = append([]ClientOption{WithTextModel(p.TextModel), WithVoice(p.Voice)}, opts...)

	switch p.Provider {
	case config.ProviderGemini, "":
		c, err := NewGeminiClient(ctx, p.GeminiAPIKey, opts...)
		if err != nil {
			return nil, nil, err
		}

		return c, c, nil

	case config.ProviderOpenAI:
		c, err := NewOpenAIClient(p.OpenAIAPIKey, opts...)
		if err != nil {
			return nil, nil, err
		}

		return c, c, nil

	case config.ProviderAnthropic:
		w, err := NewAnthropicClient(p.AnthropicAPIKey, opts...)
		if err != nil {
			return nil, nil, err
		}

		if p.OpenAIAPIKey == "" {
			slog.Info("no speech provider for anthropic, guidance audio disabled")
			return w, nil, nil
		}

		// TEXT_MODEL names a Claude model here, so speech keeps the OpenAI text default
		s, err := NewOpenAIClient(p.OpenAIAPIKey, WithVoice(p.Voice))
		if err != nil {
			return nil, nil, err
		}

		return w, s, nil

	default:
		return nil, nil, fmt.Errorf("unknown AI provider %q", p.Provider)
	}
}
