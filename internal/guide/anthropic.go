package guide

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const suggestionToolName = "save_breathing_suggestion"

// AnthropicClient generates text with Claude. It has no speech output.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
}

var _ Writer = (*AnthropicClient)(nil)

// SuggestionToolInput is the structured output of the suggestion tool.
type SuggestionToolInput struct {
	BreathingPattern string `json:"breathingPattern"`
}

// NewAnthropicClient creates an Anthropic client.
func NewAnthropicClient(apiKey string, opts ...ClientOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("API key required: set ANTHROPIC_API_KEY or run `breathe config set-key anthropic`")
	}

	o := buildOptions(string(anthropic.ModelClaudeSonnet4_5_20250929), "", opts)

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(reqOpts...),
		model:  anthropic.Model(o.textModel),
	}, nil
}

// getSuggestionTool returns the tool definition for suggestion structured output.
func getSuggestionTool() anthropic.ToolParam {
	return anthropic.ToolParam{
		Name: suggestionToolName,
		Description: anthropic.String(
			"Save the suggested breathing pattern with its name and timed instructions",
		),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type: "object",
			Properties: map[string]interface{}{
				"breathingPattern": map[string]interface{}{
					"type": "string",
					"description": "Suggested breathing pattern (e.g., box breathing, triangular breathing) " +
						"and instructions for the user based on their mood",
				},
			},
			Required: []string{"breathingPattern"},
		},
	}
}

// Microfiction writes a 50-70 word story for mood.
func (c *AnthropicClient) Microfiction(ctx context.Context, mood string) (string, error) {
	return c.text(ctx, MicrofictionSystemPrompt, MicrofictionPrompt(mood))
}

// MeditationScript writes the words spoken during the session.
func (c *AnthropicClient) MeditationScript(ctx context.Context, req ScriptRequest) (string, error) {
	return c.text(ctx, ScriptSystemPrompt, ScriptPrompt(req))
}

// SuggestPattern asks Claude to answer through the suggestion tool so the
// result is a single field rather than free-form chat.
func (c *AnthropicClient) SuggestPattern(ctx context.Context, mood string) (string, error) {
	toolDef := getSuggestionTool()

	tool := anthropic.ToolUnionParamOfTool(toolDef.InputSchema, toolDef.Name)
	tool.OfTool.Description = toolDef.Description

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: SuggestionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(SuggestionPrompt(mood))),
		},
		Tools:      []anthropic.ToolUnionParam{tool},
		ToolChoice: anthropic.ToolChoiceParamOfTool(suggestionToolName),
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to suggest pattern via Anthropic API: %w", err)
	}

	toolInput, err := parseSuggestionToolUse(resp.Content)
	if err != nil {
		return "", err
	}

	suggestion := strings.TrimSpace(toolInput.BreathingPattern)
	if suggestion == "" {
		return "", fmt.Errorf("breathing suggestion: %w", ErrEmptyResponse)
	}

	return suggestion, nil
}

// parseSuggestionToolUse extracts SuggestionToolInput from response content blocks.
func parseSuggestionToolUse(content []anthropic.ContentBlockUnion) (*SuggestionToolInput, error) {
	for _, block := range content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			var toolInput SuggestionToolInput
			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			if err := json.Unmarshal(inputBytes, &toolInput); err != nil {
				return nil, fmt.Errorf("failed to parse tool input: %w", err)
			}

			return &toolInput, nil
		}
	}

	return nil, errors.New("no tool use found in Anthropic API response")
}

func (c *AnthropicClient) text(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate text via Anthropic API: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(textBlock.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
