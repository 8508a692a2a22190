// Package embedding wraps a langchaingo embedder behind the port used by both
// ingestion and retrieval, so both sides of the pipeline produce vectors from
// the same model configuration.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
)

// Error marks embedding backend failures: unreachable backend or a vector of
// unexpected dimension. Not retried by the core.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("embedding %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Embedder maps text to fixed-length vectors. Embed and EmbedOne must use the
// same underlying model for the vector spaces to match.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// LangchainEmbedder adapts an embeddings.EmbedderImpl and enforces the
// configured vector dimension on every result.
type LangchainEmbedder struct {
	impl      *embeddings.EmbedderImpl
	dimension int
}

// NewEmbedder builds an embedder for the configured provider.
func NewEmbedder(cfg *config.EmbeddingConfig) (*LangchainEmbedder, error) {
	impl, err := newEmbedderImpl(cfg)
	if err != nil {
		return nil, &Error{Op: "init", Err: err}
	}
	return &LangchainEmbedder{impl: impl, dimension: cfg.Dimension}, nil
}

func newEmbedderImpl(cfg *config.EmbeddingConfig) (*embeddings.EmbedderImpl, error) {
	switch cfg.Provider {
	case "", "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, err
		}
		return embeddings.NewEmbedder(llm)
	case "openai":
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, err
		}
		return embeddings.NewEmbedder(llm)
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", config.ErrInvalid, cfg.Provider)
	}
}

// Embed generates embeddings for a batch of texts in one backend call.
func (e *LangchainEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &Error{Op: "batch", Err: err}
	}
	for i, v := range vectors {
		if err := e.checkDimension(v); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
	}
	return vectors, nil
}

// EmbedOne generates an embedding for a single query text.
func (e *LangchainEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, &Error{Op: "query", Err: err}
	}
	if err := e.checkDimension(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

func (e *LangchainEmbedder) checkDimension(v []float32) error {
	if e.dimension > 0 && len(v) != e.dimension {
		return &Error{Op: "dimension", Err: fmt.Errorf("got %d, index expects %d", len(v), e.dimension)}
	}
	return nil
}

var (
	sharedOnce sync.Once
	shared     *LangchainEmbedder
	sharedErr  error
)

// Shared returns the process-wide embedder, created on first use and reused
// for the process lifetime. Safe under concurrent first use; the first
// caller's configuration wins.
func Shared(cfg *config.EmbeddingConfig) (Embedder, error) {
	sharedOnce.Do(func() {
		log.Debug().
			Str("provider", cfg.Provider).
			Str("model", cfg.Model).
			Int("dimension", cfg.Dimension).
			Msg("Initializing embedder")
		shared, sharedErr = NewEmbedder(cfg)
	})
	return shared, sharedErr
}
