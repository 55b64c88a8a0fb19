package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the OpenAI-compatible chat endpoint
type LLMConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	ChatModel      string  `yaml:"chat_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSecs    int     `yaml:"timeout_secs"`
}

// ChromaConfig configures the vector store backend
type ChromaConfig struct {
	URL      string `yaml:"url"`
	Tenant   string `yaml:"tenant"`
	Database string `yaml:"database"`
}

// IndexConfig configures the ingestion pipeline. Profile "large" widens the
// default chunk window and retrieval depth for corpora with big files.
type IndexConfig struct {
	DocsDir        string `yaml:"docs_dir"`
	CollectionName string `yaml:"collection_name"`
	Profile        string `yaml:"profile"`
	ChunkSize      int    `yaml:"chunk_size"`
	ChunkOverlap   int    `yaml:"chunk_overlap"`
	BatchSize      int    `yaml:"batch_size"`
	EmbedBatchSize int    `yaml:"embed_batch_size"`
	TopK           int    `yaml:"top_k"`
	Reset          *bool  `yaml:"reset"`
	Keywords       bool   `yaml:"keywords"`
}

// ChatConfig configures the conversation service
type ChatConfig struct {
	TokenBudget  int `yaml:"token_budget"`
	TokenDivisor int `yaml:"token_divisor"`
}

// RedisConfig configures the optional durable checkpoint store. An empty
// address means the in-memory store is used.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
}

// AppConfig is the root application configuration
type AppConfig struct {
	Port   string       `yaml:"port"`
	LLM    LLMConfig    `yaml:"llm"`
	Chroma ChromaConfig `yaml:"chroma"`
	Index  IndexConfig  `yaml:"index"`
	Chat   ChatConfig   `yaml:"chat"`
	Redis  RedisConfig  `yaml:"redis"`
}

// Load reads a config file. A missing file yields the defaults, not an error.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &AppConfig{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// APIKey resolves the LLM API key from the configured environment variable
func (c *AppConfig) APIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}

// RedisPassword resolves the Redis password from the configured environment
// variable
func (c *AppConfig) RedisPassword() string {
	if c.Redis.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.Redis.PasswordEnv)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:1234/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "LLM_API_KEY"
	}
	if cfg.LLM.ChatModel == "" {
		cfg.LLM.ChatModel = "llama-3.2-3b-instruct"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.Chroma.URL == "" {
		cfg.Chroma.URL = "http://localhost:8000"
	}
	if cfg.Index.DocsDir == "" {
		cfg.Index.DocsDir = "./docs"
	}
	if cfg.Index.CollectionName == "" {
		cfg.Index.CollectionName = "documents"
	}
	large := cfg.Index.Profile == "large"
	if cfg.Index.ChunkSize == 0 {
		cfg.Index.ChunkSize = 800
		if large {
			cfg.Index.ChunkSize = 1200
		}
	}
	if cfg.Index.ChunkOverlap == 0 {
		cfg.Index.ChunkOverlap = 200
		if large {
			cfg.Index.ChunkOverlap = 300
		}
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 128
	}
	if cfg.Index.EmbedBatchSize == 0 {
		cfg.Index.EmbedBatchSize = 32
	}
	if cfg.Index.TopK == 0 {
		cfg.Index.TopK = 4
		if large {
			cfg.Index.TopK = 8
		}
	}
	if cfg.Index.Reset == nil {
		t := true
		cfg.Index.Reset = &t
	}
	if cfg.Chat.TokenBudget == 0 {
		cfg.Chat.TokenBudget = 3000
	}
	if cfg.Chat.TokenDivisor == 0 {
		cfg.Chat.TokenDivisor = 4
	}
}
