package guide

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultOpenAITextModel writes stories, suggestions and scripts.
	DefaultOpenAITextModel = string(openai.ChatModelGPT4oMini)
	// DefaultOpenAIVoice is the speech voice used for guidance.
	DefaultOpenAIVoice = string(openai.AudioSpeechNewParamsVoiceAlloy)
)

// OpenAIClient generates text with chat completions and speech with the
// audio API. Speech is requested as raw PCM, which OpenAI serves as 24 kHz
// 16-bit mono.
type OpenAIClient struct {
	client    openai.Client
	textModel string
	voice     string
}

var (
	_ Writer  = (*OpenAIClient)(nil)
	_ Speaker = (*OpenAIClient)(nil)
)

// NewOpenAIClient creates an OpenAI client.
func NewOpenAIClient(apiKey string, opts ...ClientOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("API key required: set OPENAI_API_KEY or run `breathe config set-key openai`")
	}

	o := buildOptions(DefaultOpenAITextModel, DefaultOpenAIVoice, opts)

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}

	return &OpenAIClient{
		client:    openai.NewClient(reqOpts...),
		textModel: o.textModel,
		voice:     o.voice,
	}, nil
}

// Microfiction writes a 50-70 word story for mood.
func (c *OpenAIClient) Microfiction(ctx context.Context, mood string) (string, error) {
	return c.chat(ctx, MicrofictionSystemPrompt, MicrofictionPrompt(mood))
}

// SuggestPattern suggests a breathing pattern with timings for mood.
func (c *OpenAIClient) SuggestPattern(ctx context.Context, mood string) (string, error) {
	return c.chat(ctx, SuggestionSystemPrompt, SuggestionPrompt(mood))
}

// MeditationScript writes the words spoken during the session.
func (c *OpenAIClient) MeditationScript(ctx context.Context, req ScriptRequest) (string, error) {
	return c.chat(ctx, ScriptSystemPrompt, ScriptPrompt(req))
}

// Synthesize speaks script and returns the raw PCM body.
func (c *OpenAIClient) Synthesize(ctx context.Context, script string) ([]byte, error) {
	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          script,
		Model:          openai.SpeechModelGPT4oMiniTTS,
		Voice:          openai.AudioSpeechNewParamsVoice(c.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech via OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech response: %w", err)
	}

	return pcm, nil
}

func (c *OpenAIClient) chat(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.textModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate text via OpenAI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
