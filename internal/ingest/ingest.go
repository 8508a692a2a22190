// Package ingest drives the ingestion pipeline for one document: chunk the
// extracted pages, embed the chunk texts, and upsert the vectors.
package ingest

import (
	"context"

	"github.com/rs/zerolog/log"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/helper"
	"docqa/internal/index"
	"docqa/internal/models"
)

type Ingestor struct {
	embedder  embedding.Embedder
	store     index.Store
	indexName string
	dimension int
	rag       *config.RAGConfig
}

func NewIngestor(embedder embedding.Embedder, store index.Store, cfg *config.Config) *Ingestor {
	return &Ingestor{
		embedder:  embedder,
		store:     store,
		indexName: cfg.Index.Name,
		dimension: cfg.Embedding.Dimension,
		rag:       &cfg.RAG,
	}
}

// Ingest stores one document and returns the number of chunks written.
// Empty input returns 0 without touching any backend. Upserts are committed
// in batches, so a failure partway through leaves earlier batches persisted:
// ingestion is at-least-once, not transactional.
func (in *Ingestor) Ingest(ctx context.Context, documentID string, pages []models.Page) (int, error) {
	if len(pages) == 0 {
		log.Info().Str("document", documentID).Msg("No pages extracted, nothing to ingest")
		return 0, nil
	}

	chunks, err := chunker.Split(pages, in.rag.ChunkSize, in.rag.ChunkOverlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		log.Info().Str("document", documentID).Msg("No chunks produced, nothing to ingest")
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := in.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	records := make([]index.Record, len(chunks))
	for i, c := range chunks {
		id, err := helper.GenerateUUID()
		if err != nil {
			return 0, err
		}
		records[i] = index.Record{
			ID:     id,
			Vector: vectors[i],
			Meta: index.Metadata{
				Text:           c.Text,
				PageNumber:     c.PageNumber,
				SourceFilename: documentID,
			},
		}
	}

	if err := in.store.EnsureIndex(ctx, in.indexName, in.dimension); err != nil {
		return 0, err
	}
	if err := in.store.Upsert(ctx, in.indexName, records); err != nil {
		return 0, err
	}

	log.Info().
		Str("document", documentID).
		Int("pages", len(pages)).
		Int("chunks", len(records)).
		Msg("Ingested document")
	return len(records), nil
}
