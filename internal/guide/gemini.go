package guide

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	// DefaultGeminiTextModel writes stories, suggestions and scripts.
	DefaultGeminiTextModel = "gemini-2.5-flash"
	// GeminiTTSModel speaks the guidance script.
	GeminiTTSModel = "gemini-2.5-flash-preview-tts"
	// DefaultGeminiVoice is the prebuilt voice used for guidance.
	DefaultGeminiVoice = "Algenib"
)

// GeminiClient generates text and speech with the Gemini API.
type GeminiClient struct {
	client    *genai.Client
	textModel string
	voice     string
}

var (
	_ Writer  = (*GeminiClient)(nil)
	_ Speaker = (*GeminiClient)(nil)
)

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("API key required: set GEMINI_API_KEY or run `breathe config set-key gemini`")
	}

	o := buildOptions(DefaultGeminiTextModel, DefaultGeminiVoice, opts)

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if o.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		textModel: o.textModel,
		voice:     o.voice,
	}, nil
}

// Microfiction writes a 50-70 word story for mood.
func (c *GeminiClient) Microfiction(ctx context.Context, mood string) (string, error) {
	return c.generateField(ctx, MicrofictionSystemPrompt, MicrofictionPrompt(mood),
		"story", "A short, mood-based microfiction story.")
}

// SuggestPattern suggests a breathing pattern with timings for mood.
func (c *GeminiClient) SuggestPattern(ctx context.Context, mood string) (string, error) {
	return c.generateField(ctx, SuggestionSystemPrompt, SuggestionPrompt(mood),
		"breathingPattern", "Suggested breathing pattern and instructions for the user based on their mood.")
}

// MeditationScript writes the words spoken during the session.
func (c *GeminiClient) MeditationScript(ctx context.Context, req ScriptRequest) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(ScriptPrompt(req)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ScriptSystemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate script via Gemini API: %w", err)
	}

	script := strings.TrimSpace(resp.Text())
	if script == "" {
		return "", fmt.Errorf("meditation script: %w", ErrEmptyResponse)
	}

	return script, nil
}

// Synthesize speaks script with the TTS model. Gemini returns raw 24 kHz
// 16-bit mono PCM as inline data.
func (c *GeminiClient) Synthesize(ctx context.Context, script string) ([]byte, error) {
	resp, err := c.client.Models.GenerateContent(ctx, GeminiTTSModel, genai.Text(script), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.voice},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech via Gemini API: %w", err)
	}

	var pcm []byte
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}

		for _, part := range cand.Content.Parts {
			if part.InlineData != nil {
				pcm = append(pcm, part.InlineData.Data...)
			}
		}

		if len(pcm) > 0 {
			break
		}
	}

	return pcm, nil
}

// generateField asks for a JSON object with a single string field and
// returns that field.
func (c *GeminiClient) generateField(ctx context.Context, system, prompt, field, description string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				field: {Type: genai.TypeString, Description: description},
			},
			Required: []string{field},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate %s via Gemini API: %w", field, err)
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(resp.Text()), &out); err != nil {
		return "", fmt.Errorf("failed to parse %s response: %w", field, err)
	}

	text := strings.TrimSpace(out[field])
	if text == "" {
		return "", fmt.Errorf("%s: %w", field, ErrEmptyResponse)
	}

	return text, nil
}
