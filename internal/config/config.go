package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration errors. They are raised before any backend
// I/O happens and are never retried.
var ErrInvalid = errors.New("invalid configuration")

const (
	defaultChunkSize    = 500 // characters per chunk
	defaultChunkOverlap = 50  // overlapping characters between consecutive chunks
	defaultTopK         = 5
	defaultBatchSize    = 500 // max vectors per upsert call
	defaultDimension    = 768
)

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Key     string `yaml:"key"`
	// KeyEnv names the environment variable holding the credential when Key
	// is not set in the file.
	KeyEnv string `yaml:"key_env"`
}

type EmbeddingConfig struct {
	// Provider selects the langchaingo backend: "ollama" or "openai".
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	Key       string `yaml:"key"`
	Dimension int    `yaml:"dimension"`
}

type IndexConfig struct {
	// Backend selects the vector index: "endee", "chromem" or "postgres".
	Backend string `yaml:"backend"`
	BaseURL string `yaml:"base_url"`
	Name    string `yaml:"name"`
	Metric  string `yaml:"metric"`
	// BuildParams is merged verbatim into the index-create payload. It exists
	// to pass values the server accepts but client-side validation rejects.
	BuildParams map[string]any `yaml:"build_params"`
	BatchSize   int            `yaml:"batch_size"`
	// Chromem backend only.
	Path string `yaml:"path"`
	// Postgres backend only.
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would corrupt chunking or indexing before
// any backend is contacted.
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalid, c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must satisfy 0 <= overlap < chunk_size %d",
			ErrInvalid, c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive, got %d", ErrInvalid, c.Embedding.Dimension)
	}
	if c.Index.Name == "" {
		return fmt.Errorf("%w: index name is required", ErrInvalid)
	}
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("%w: index batch_size must be positive, got %d", ErrInvalid, c.Index.BatchSize)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
		cfg.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = defaultDimension
	}
	if cfg.Index.Name == "" {
		cfg.Index.Name = "documents"
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = "cosine"
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = defaultBatchSize
	}
	if cfg.LLM.KeyEnv == "" {
		cfg.LLM.KeyEnv = "GEMINI_API_KEY"
	}
}
