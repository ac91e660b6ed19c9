// Package llm provides text-generation clients used to synthesize answers.
// Every client takes a prompt and returns the model's text output.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Supported providers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderCompatible = "openai-compatible"
)

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 60 * time.Second

var (
	// ErrMissingCredentials indicates no API key (or ambient credentials) is available.
	ErrMissingCredentials = errors.New("llm: no credentials configured")

	// ErrUnknownProvider indicates an unsupported provider name.
	ErrUnknownProvider = errors.New("llm: unknown provider")
)

// Client produces text from a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Config selects and configures a Client.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string

	// UseADC lets the Gemini client fall back to Application Default
	// Credentials when APIKey is empty.
	UseADC bool

	Timeout    time.Duration
	MaxRetries int

	// RequestsPerMinute throttles outgoing requests when positive.
	RequestsPerMinute float64
	Burst             int

	// HTTPClient overrides the transport. Used by tests.
	HTTPClient *http.Client
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// New creates the client for cfg.Provider, throttled when cfg.RequestsPerMinute > 0.
func New(ctx context.Context, cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)
	switch cfg.Provider {
	case ProviderGemini, "":
		client, err = NewGemini(ctx, cfg)
	case ProviderOpenAI:
		client, err = NewOpenAI(cfg)
	case ProviderCompatible:
		client, err = NewCompatible(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		client = NewRateLimited(client, cfg.RequestsPerMinute, cfg.Burst)
	}
	return client, nil
}
