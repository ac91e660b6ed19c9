package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"go-rag-server/llm"
	"go-rag-server/rag"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid configuration")

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr         string `yaml:"addr" toml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" toml:"max_body_bytes"`
	StaticDir    string `yaml:"static_dir" toml:"static_dir"`
}

// ChunkingConfig configures how documents are split into chunks.
type ChunkingConfig struct {
	Size    int `yaml:"size" toml:"size"`
	Overlap int `yaml:"overlap" toml:"overlap"`
}

// RetrievalConfig configures query-time ranking.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" toml:"top_k"`
}

// LLMConfig selects and configures the generation collaborator.
type LLMConfig struct {
	Provider          string  `yaml:"provider" toml:"provider"`
	Model             string  `yaml:"model" toml:"model"`
	BaseURL           string  `yaml:"base_url" toml:"base_url"`
	APIKey            string  `yaml:"api_key" toml:"api_key"`
	APIKeyEnv         string  `yaml:"api_key_env" toml:"api_key_env"`
	TimeoutSecs       int     `yaml:"timeout_secs" toml:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" toml:"max_retries"`
	RequestsPerMinute float64 `yaml:"requests_per_minute" toml:"requests_per_minute"`
	Burst             int     `yaml:"burst" toml:"burst"`
}

// WatchConfig configures the optional ingest directory watcher.
type WatchConfig struct {
	Dir            string `yaml:"dir" toml:"dir"`
	DebounceMillis int    `yaml:"debounce_millis" toml:"debounce_millis"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Chunking  ChunkingConfig  `yaml:"chunking" toml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval" toml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm" toml:"llm"`
	Watch     WatchConfig     `yaml:"watch" toml:"watch"`
	Verbose   bool            `yaml:"verbose" toml:"verbose"`
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are skipped; variables already set are kept.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads a YAML or TOML (by .toml extension) config file. An empty path
// yields defaults. Environment overrides are applied and the result validated.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			err = toml.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the settings the core depends on.
func (c *AppConfig) Validate() error {
	if _, err := rag.NewChunker(c.Chunking.Size, c.Chunking.Overlap); err != nil {
		return fmt.Errorf("%w: chunking: %w", ErrInvalid, err)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalid)
	}
	switch c.LLM.Provider {
	case llm.ProviderGemini, llm.ProviderOpenAI, llm.ProviderCompatible:
	default:
		return fmt.Errorf("%w: unknown llm.provider %q", ErrInvalid, c.LLM.Provider)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.max_body_bytes must be positive", ErrInvalid)
	}
	return nil
}

// LLMClientConfig resolves the credential and returns the llm.Config for c.LLM.
// Gemini may fall back to Application Default Credentials when
// GOOGLE_APPLICATION_CREDENTIALS is set.
func (c *AppConfig) LLMClientConfig() llm.Config {
	key := c.LLM.APIKey
	if key == "" && c.LLM.APIKeyEnv != "" {
		key = os.Getenv(c.LLM.APIKeyEnv)
	}
	return llm.Config{
		Provider:          c.LLM.Provider,
		Model:             c.LLM.Model,
		BaseURL:           c.LLM.BaseURL,
		APIKey:            key,
		UseADC:            c.LLM.Provider == llm.ProviderGemini && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "",
		Timeout:           c.GenerationTimeout(),
		MaxRetries:        c.LLM.MaxRetries,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
		Burst:             c.LLM.Burst,
	}
}

// GenerationTimeout bounds one call to the generation collaborator.
func (c *AppConfig) GenerationTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSecs) * time.Second
}

// WatchDebounce is the quiet period before a changed file is ingested.
func (c *AppConfig) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMillis) * time.Millisecond
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server:    ServerConfig{Addr: ":4000", MaxBodyBytes: 5 << 20},
		Chunking:  ChunkingConfig{Size: rag.DefaultChunkSize, Overlap: rag.DefaultChunkOverlap},
		Retrieval: RetrievalConfig{TopK: rag.DefaultTopK},
		LLM:       LLMConfig{Provider: llm.ProviderGemini, TimeoutSecs: 60},
		Watch:     WatchConfig{DebounceMillis: 500},
	}
}

func applyEnv(cfg *AppConfig) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if p := os.Getenv("RAG_LLM_PROVIDER"); p != "" {
		cfg.LLM.Provider = p
	}
	if m := os.Getenv("RAG_LLM_MODEL"); m != "" {
		cfg.LLM.Model = m
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = llm.ProviderGemini
	}
	if cfg.LLM.APIKeyEnv == "" {
		switch cfg.LLM.Provider {
		case llm.ProviderGemini:
			cfg.LLM.APIKeyEnv = "GEMINI_API_KEY"
		case llm.ProviderOpenAI, llm.ProviderCompatible:
			cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if cfg.LLM.TimeoutSecs <= 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.Watch.DebounceMillis <= 0 {
		cfg.Watch.DebounceMillis = 500
	}
}
