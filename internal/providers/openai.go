// Package providers wraps the LLM client used by the router's fallback tier
// and by production agent branches. Callers treat it as optional: a nil
// *Client means the integration is not configured and demo paths apply.
package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mediaiq/miq/internal/config"
)

// Client is a thin chat-completion wrapper with a per-call timeout.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
}

// New returns a client, or nil when no API key is configured.
func New(settings *config.Settings) *Client {
	if !settings.OpenAIConfigured() {
		return nil
	}
	return &Client{
		api:     openai.NewClient(option.WithAPIKey(settings.OpenAIAPIKey)),
		model:   settings.OpenAIModel,
		timeout: settings.APITimeout(),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Complete runs a single system+user chat completion and returns the
// assistant text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
