// Package retriever answers the question side of the pipeline: embed the
// query and pull the most similar chunks back out of the index.
package retriever

import (
	"context"

	"github.com/rs/zerolog/log"

	"docqa/internal/embedding"
	"docqa/internal/index"
	"docqa/internal/models"
)

// DefaultTopK is the number of chunks retrieved when the caller passes no
// explicit limit.
const DefaultTopK = 5

type Retriever struct {
	embedder  embedding.Embedder
	store     index.Store
	indexName string
}

func NewRetriever(embedder embedding.Embedder, store index.Store, indexName string) *Retriever {
	return &Retriever{embedder: embedder, store: store, indexName: indexName}
}

// Retrieve embeds the question and returns up to topK results ordered by
// descending similarity. Records with partially populated metadata come back
// with zero-valued fields rather than failing the whole query.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]models.RetrievedResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	vector, err := r.embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, err
	}
	hits, err := r.store.Query(ctx, r.indexName, vector, topK)
	if err != nil {
		return nil, err
	}
	results := make([]models.RetrievedResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, models.RetrievedResult{
			Text:           h.Meta.Text,
			PageNumber:     h.Meta.PageNumber,
			SourceFilename: h.Meta.SourceFilename,
			Score:          h.Score,
		})
	}
	log.Debug().Int("results", len(results)).Msg("Retrieved chunks")
	return results, nil
}
