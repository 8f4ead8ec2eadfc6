package guide

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/config"
)

// recordingServer serves canned JSON and keeps the request bodies it saw.
type recordingServer struct {
	*httptest.Server

	mu     sync.Mutex
	paths  []string
	bodies []string
}

func newRecordingServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, body string)) *recordingServer {
	t.Helper()

	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)

		rs.mu.Lock()
		rs.paths = append(rs.paths, r.URL.Path)
		rs.bodies = append(rs.bodies, string(b))
		rs.mu.Unlock()

		handle(w, r, string(b))
	}))
	t.Cleanup(rs.Close)

	return rs
}

func (rs *recordingServer) lastBody() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if len(rs.bodies) == 0 {
		return ""
	}

	return rs.bodies[len(rs.bodies)-1]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func openAIChat(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestOpenAIClient(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request, body string) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			writeJSON(w, openAIChat("  A quiet harbor at dawn.  "))
		case strings.HasSuffix(r.URL.Path, "/audio/speech"):
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pcm)
		default:
			http.NotFound(w, r)
		}
	})

	c, err := NewOpenAIClient("test-key", WithBaseURL(srv.URL+"/"), WithTextModel("gpt-test"), WithVoice("sage"))
	require.NoError(t, err)

	ctx := context.Background()

	story, err := c.Microfiction(ctx, "reflective")
	require.NoError(t, err)
	assert.Equal(t, "A quiet harbor at dawn.", story)
	assert.Contains(t, srv.lastBody(), `"gpt-test"`)
	assert.Contains(t, srv.lastBody(), "reflective")

	_, err = c.SuggestPattern(ctx, "anxious")
	require.NoError(t, err)
	assert.Contains(t, srv.lastBody(), "box breathing")

	_, err = c.MeditationScript(ctx, ScriptRequestFor("tired", breath.MustLookup(breath.PatternDefault)))
	require.NoError(t, err)
	assert.Contains(t, srv.lastBody(), "30-second")

	got, err := c.Synthesize(ctx, "Breathe in.")
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
	assert.Contains(t, srv.lastBody(), `"pcm"`)
	assert.Contains(t, srv.lastBody(), `"sage"`)
}

func TestOpenAIClient_EmptyChoice(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, openAIChat("   "))
	})

	c, err := NewOpenAIClient("test-key", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	_, err = c.Microfiction(context.Background(), "tired")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIClient_APIError(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	})

	c, err := NewOpenAIClient("test-key", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	_, err = c.Microfiction(context.Background(), "tired")
	require.Error(t, err)
}

func anthropicMessage(content ...map[string]any) map[string]any {
	return map[string]any{
		"id":            "msg_1",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-test",
		"content":       content,
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 10, "output_tokens": 20},
	}
}

func TestAnthropicClient(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request, body string) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}

		if strings.Contains(body, suggestionToolName) {
			writeJSON(w, anthropicMessage(map[string]any{
				"type":  "tool_use",
				"id":    "toolu_1",
				"name":  suggestionToolName,
				"input": map[string]any{"breathingPattern": " Box Breathing: Inhale: 4 seconds. "},
			}))
			return
		}

		writeJSON(w, anthropicMessage(
			map[string]any{"type": "text", "text": "Moss softened "},
			map[string]any{"type": "text", "text": "every step."},
		))
	})

	c, err := NewAnthropicClient("test-key", WithBaseURL(srv.URL), WithTextModel("claude-test"))
	require.NoError(t, err)

	ctx := context.Background()

	story, err := c.Microfiction(ctx, "tired")
	require.NoError(t, err)
	assert.Equal(t, "Moss softened every step.", story)
	assert.Contains(t, srv.lastBody(), `"claude-test"`)

	suggestion, err := c.SuggestPattern(ctx, "anxious")
	require.NoError(t, err)
	assert.Equal(t, "Box Breathing: Inhale: 4 seconds.", suggestion)
	assert.Contains(t, srv.lastBody(), `"tool_choice"`)
}

func TestAnthropicClient_NoToolUse(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, anthropicMessage(map[string]any{"type": "text", "text": "no tool"}))
	})

	c, err := NewAnthropicClient("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.SuggestPattern(context.Background(), "anxious")
	require.Error(t, err)
}

func geminiResponse(parts ...map[string]any) map[string]any {
	return map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": parts},
			"finishReason": "STOP",
		}},
	}
}

func TestGeminiClient(t *testing.T) {
	pcm := []byte{9, 0, 8, 0}
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request, body string) {
		switch {
		case strings.Contains(r.URL.Path, GeminiTTSModel):
			writeJSON(w, geminiResponse(map[string]any{
				"inlineData": map[string]any{
					"mimeType": "audio/L16;codec=pcm;rate=24000",
					"data":     base64.StdEncoding.EncodeToString(pcm),
				},
			}))
		case strings.Contains(body, `"story"`):
			writeJSON(w, geminiResponse(map[string]any{"text": `{"story": "Stars hummed over the dunes."}`}))
		case strings.Contains(body, `"breathingPattern"`):
			writeJSON(w, geminiResponse(map[string]any{"text": `{"breathingPattern": "Triangular: Inhale: 4 seconds"}`}))
		default:
			writeJSON(w, geminiResponse(map[string]any{"text": "Welcome. Inhale now."}))
		}
	})

	ctx := context.Background()
	c, err := NewGeminiClient(ctx, "test-key", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	story, err := c.Microfiction(ctx, "energized")
	require.NoError(t, err)
	assert.Equal(t, "Stars hummed over the dunes.", story)
	assert.Contains(t, srv.paths[len(srv.paths)-1], DefaultGeminiTextModel+":generateContent")

	suggestion, err := c.SuggestPattern(ctx, "energized")
	require.NoError(t, err)
	assert.Equal(t, "Triangular: Inhale: 4 seconds", suggestion)

	script, err := c.MeditationScript(ctx, ScriptRequestFor("energized", breath.MustLookup(breath.PatternTriangular)))
	require.NoError(t, err)
	assert.Equal(t, "Welcome. Inhale now.", script)

	got, err := c.Synthesize(ctx, script)
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
	assert.Contains(t, srv.lastBody(), DefaultGeminiVoice)
}

func TestGeminiClient_EmptyField(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, geminiResponse(map[string]any{"text": `{"story": ""}`}))
	})

	ctx := context.Background()
	c, err := NewGeminiClient(ctx, "test-key", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	_, err = c.Microfiction(ctx, "tired")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClients_RequireAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "")
	require.Error(t, err)

	_, err = NewOpenAIClient("")
	require.Error(t, err)

	_, err = NewAnthropicClient("")
	require.Error(t, err)
}

func TestNewClients(t *testing.T) {
	ctx := context.Background()

	t.Run("gemini speaks itself", func(t *testing.T) {
		w, s, err := NewClients(ctx, Providers{Provider: config.ProviderGemini, GeminiAPIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, &GeminiClient{}, w)
		assert.Same(t, w, s)
	})

	t.Run("openai speaks itself", func(t *testing.T) {
		w, s, err := NewClients(ctx, Providers{Provider: config.ProviderOpenAI, OpenAIAPIKey: "k", Voice: "sage"})
		require.NoError(t, err)
		oc, ok := w.(*OpenAIClient)
		require.True(t, ok)
		assert.Equal(t, "sage", oc.voice)
		assert.Equal(t, DefaultOpenAITextModel, oc.textModel)
		assert.Same(t, w, s)
	})

	t.Run("anthropic without speech", func(t *testing.T) {
		w, s, err := NewClients(ctx, Providers{Provider: config.ProviderAnthropic, AnthropicAPIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, &AnthropicClient{}, w)
		assert.Nil(t, s)
	})

	t.Run("anthropic with openai speech", func(t *testing.T) {
		w, s, err := NewClients(ctx, Providers{
			Provider:        config.ProviderAnthropic,
			AnthropicAPIKey: "k",
			OpenAIAPIKey:    "o",
			TextModel:       "claude-test",
		})
		require.NoError(t, err)
		ac, ok := w.(*AnthropicClient)
		require.True(t, ok)
		assert.EqualValues(t, "claude-test", ac.model)
		oc, ok := s.(*OpenAIClient)
		require.True(t, ok)
		assert.Equal(t, DefaultOpenAITextModel, oc.textModel)
	})

	t.Run("missing key", func(t *testing.T) {
		_, _, err := NewClients(ctx, Providers{Provider: config.ProviderOpenAI})
		require.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, _, err := NewClients(ctx, Providers{Provider: "mistral"})
		require.Error(t, err)
	})
}

func TestProvidersFromConfig(t *testing.T) {
	cfg := &config.Config{
		AIProvider:      config.ProviderOpenAI,
		GeminiAPIKey:    "g",
		OpenAIAPIKey:    "o",
		AnthropicAPIKey: "a",
		TextModel:       "m",
		TTSVoice:        "v",
	}

	assert.Equal(t, Providers{
		Provider:        config.ProviderOpenAI,
		GeminiAPIKey:    "g",
		OpenAIAPIKey:    "o",
		AnthropicAPIKey: "a",
		TextModel:       "m",
		Voice:           "v",
	}, ProvidersFromConfig(cfg))
}

func TestBuildOptions(t *testing.T) {
	o := buildOptions("model", "voice", []ClientOption{WithTextModel(""), WithVoice("sage"), WithBaseURL("http://x")})
	assert.Equal(t, clientOptions{textModel: "model", voice: "sage", baseURL: "http://x"}, o)
}
