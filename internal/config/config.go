package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Size    int     `yaml:"size"`
	Overlap float64 `yaml:"overlap"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI embedder backend.
type OpenAIEmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector index.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IndexConfig selects and configures the vector index implementation.
type IndexConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// RankerConfig fixes the recency decay constant, in days. It is not
// settable per query.
type RankerConfig struct {
	DecayDays float64 `yaml:"decay_days"`
}

// QueryConfig bounds query execution.
type QueryConfig struct {
	TimeoutSecs int `yaml:"timeout_secs"`
}

// IngestConfig bounds the ingestion queue and worker pool.
type IngestConfig struct {
	QueueSize int `yaml:"queue_size"`
	Workers   int `yaml:"workers"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Index    IndexConfig    `yaml:"index"`
	Ranker   RankerConfig   `yaml:"ranker"`
	Query    QueryConfig    `yaml:"query"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/semsearch/config.yaml.
// If neither exists, it writes defaults to ~/.config/semsearch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
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

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "semsearch", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Chunker:  ChunkerConfig{Size: 800, Overlap: 0.15},
		Embedder: EmbedderConfig{Type: "hash", Dimension: 256},
		Index:    IndexConfig{Type: "memory"},
		Ranker:   RankerConfig{DecayDays: 30},
		Query:    QueryConfig{TimeoutSecs: 10},
		Ingest:   IngestConfig{QueueSize: 64, Workers: 4},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 800
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hash"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 256
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
	}
	if cfg.Ranker.DecayDays == 0 {
		cfg.Ranker.DecayDays = 30
	}
	if cfg.Query.TimeoutSecs == 0 {
		cfg.Query.TimeoutSecs = 10
	}
	if cfg.Ingest.QueueSize == 0 {
		cfg.Ingest.QueueSize = 64
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = 4
	}
	if cfg.Index.Type == "qdrant" && cfg.Index.Qdrant != nil && cfg.Index.Qdrant.TimeoutSecs == 0 {
		cfg.Index.Qdrant.TimeoutSecs = 15
	}
}
