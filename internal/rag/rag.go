// Package rag composes retrieval and generation into the single
// question-answer call exposed to callers.
package rag

import (
	"context"

	"github.com/rs/zerolog/log"

	"docqa/internal/models"
	"docqa/internal/retriever"
)

// Retriever finds the chunks most similar to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]models.RetrievedResult, error)
}

// Generator produces an answer grounded on the given chunks.
type Generator interface {
	Generate(ctx context.Context, question string, chunks []models.RetrievedResult) (string, error)
}

type RAG struct {
	retriever Retriever
	generator Generator
	topK      int
}

func NewRAG(r Retriever, g Generator, topK int) *RAG {
	if topK <= 0 {
		topK = retriever.DefaultTopK
	}
	return &RAG{retriever: r, generator: g, topK: topK}
}

// Ask retrieves the chunks most relevant to the question, generates a
// grounded answer from them, and returns both. Each call is independent:
// nothing is cached between invocations, so the answer reflects index state
// at call time.
func (r *RAG) Ask(ctx context.Context, question string) (*models.Answer, error) {
	sources, err := r.retriever.Retrieve(ctx, question, r.topK)
	if err != nil {
		return nil, err
	}
	text, err := r.generator.Generate(ctx, question, sources)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("sources", len(sources)).Msg("Answered question")
	return &models.Answer{Text: text, Sources: sources}, nil
}
