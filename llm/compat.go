package llm

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// Defaults for OpenAI-compatible servers, pointing at a local Ollama.
const (
	DefaultCompatibleBaseURL = "http://localhost:11434/v1"
	DefaultCompatibleModel   = "llama3.2"
)

// Ensure CompatibleClient implements the interface.
var _ Client = (*CompatibleClient)(nil)

// CompatibleClient talks to any server exposing the OpenAI chat completions
// API (Ollama, LM Studio, vLLM, Azure deployments). The API key is optional.
type CompatibleClient struct {
	client *goopenai.Client
	model  string
}

// NewCompatible creates a client for an OpenAI-compatible endpoint.
func NewCompatible(cfg Config) (*CompatibleClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCompatibleBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultCompatibleModel
	}

	conf := goopenai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = cfg.BaseURL
	conf.HTTPClient = cfg.httpClient()

	return &CompatibleClient{
		client: goopenai.NewClientWithConfig(conf),
		model:  cfg.Model,
	}, nil
}

// Model returns the chat model name.
func (c *CompatibleClient) Model() string { return c.model }

// Generate sends prompt as a single user message.
func (c *CompatibleClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no response choices returned", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}
