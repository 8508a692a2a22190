package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "embedding:\n  model: nomic-embed-text\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 50 {
		t.Errorf("chunking defaults wrong: %+v", cfg.RAG)
	}
	if cfg.RAG.TopK != 5 {
		t.Errorf("top_k default %d, want 5", cfg.RAG.TopK)
	}
	if cfg.Index.Name != "documents" || cfg.Index.BatchSize != 500 {
		t.Errorf("index defaults wrong: %+v", cfg.Index)
	}
	if cfg.LLM.KeyEnv != "GEMINI_API_KEY" {
		t.Errorf("key_env default %q", cfg.LLM.KeyEnv)
	}
}

func TestLoadConfigRejectsBadChunking(t *testing.T) {
	cases := []string{
		"rag:\n  chunk_size: 100\n  chunk_overlap: 100\n",
		"rag:\n  chunk_size: 100\n  chunk_overlap: 150\n",
		"rag:\n  chunk_size: 100\n  chunk_overlap: -1\n",
	}
	for _, content := range cases {
		path := writeConfig(t, content)
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalid) {
			t.Errorf("config %q: want ErrInvalid, got %v", content, err)
		}
	}
}

func TestValidateRejectsBadDimension(t *testing.T) {
	cfg := &Config{
		Embedding: EmbeddingConfig{Dimension: -1},
		Index:     IndexConfig{Name: "documents", BatchSize: 500},
		RAG:       RAGConfig{ChunkSize: 500, ChunkOverlap: 50},
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("want ErrInvalid, got %v", err)
	}
}
