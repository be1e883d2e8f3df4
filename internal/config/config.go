// Package config loads application configuration from a yaml file, filling
// in defaults for anything unset.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChunkerConfig controls how document text is split into word windows.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// OpenAIEmbedderConfig holds settings for the OpenAI embedding provider.
type OpenAIEmbedderConfig struct {
	Model       string `yaml:"model"`
	Dimension   int    `yaml:"dimension"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	APIKeyEnv   string `yaml:"api_key_env"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// AnswerConfig selects and configures the answer generator.
type AnswerConfig struct {
	Type        string  `yaml:"type"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// SearchConfig controls retrieval behavior.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// Config is the root application configuration.
type Config struct {
	ListenAddr   string         `yaml:"listen_addr"`
	DataDir      string         `yaml:"data_dir"`
	UploadDir    string         `yaml:"upload_dir"`
	RegistryPath string         `yaml:"registry_path"`
	Chunker      ChunkerConfig  `yaml:"chunker"`
	Embedder     EmbedderConfig `yaml:"embedder"`
	Answer       AnswerConfig   `yaml:"answer"`
	Search       SearchConfig   `yaml:"search"`
}

// Load reads configuration from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// validate rejects settings the chunker cannot honor; with them every ingest
// would silently index nothing.
func (c *Config) validate() error {
	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("chunker: chunk_size must be positive, got %d", c.Chunker.ChunkSize)
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunker: overlap %d must be non-negative and smaller than chunk_size %d",
			c.Chunker.Overlap, c.Chunker.ChunkSize)
	}
	return nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{
		ListenAddr:   ":8080",
		DataDir:      "data/vectordb",
		UploadDir:    "data/uploads",
		RegistryPath: "data/registry.db",
		Chunker:      ChunkerConfig{ChunkSize: 30, Overlap: 5},
		Embedder: EmbedderConfig{
			Type: "openai",
			OpenAI: &OpenAIEmbedderConfig{
				Model:       "text-embedding-3-small",
				Dimension:   1536,
				BatchSize:   500,
				TimeoutSecs: 30,
				APIKeyEnv:   "OPENAI_API_KEY",
			},
		},
		Answer: AnswerConfig{
			Type:        "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   256,
			TimeoutSecs: 60,
		},
		Search: SearchConfig{TopK: 5},
	}
	return cfg
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = def.UploadDir
	}
	if cfg.RegistryPath == "" {
		cfg.RegistryPath = def.RegistryPath
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = def.Chunker.ChunkSize
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = def.Search.TopK
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = def.Embedder.OpenAI
		} else {
			o, d := cfg.Embedder.OpenAI, def.Embedder.OpenAI
			if o.Model == "" {
				o.Model = d.Model
			}
			if o.Dimension == 0 {
				o.Dimension = d.Dimension
			}
			if o.BatchSize == 0 {
				o.BatchSize = d.BatchSize
			}
			if o.TimeoutSecs == 0 {
				o.TimeoutSecs = d.TimeoutSecs
			}
			if o.APIKeyEnv == "" {
				o.APIKeyEnv = d.APIKeyEnv
			}
		}
	}
	if cfg.Answer.Type == "" {
		cfg.Answer.Type = def.Answer.Type
	}
	if cfg.Answer.Model == "" {
		cfg.Answer.Model = def.Answer.Model
	}
	if cfg.Answer.MaxTokens == 0 {
		cfg.Answer.MaxTokens = def.Answer.MaxTokens
	}
	if cfg.Answer.TimeoutSecs == 0 {
		cfg.Answer.TimeoutSecs = def.Answer.TimeoutSecs
	}
}
