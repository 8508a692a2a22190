package ingest

import (
	"context"
	"strings"
	"testing"

	"docqa/internal/config"
	"docqa/internal/index"
	"docqa/internal/models"
)

// fakeEmbedder counts batch calls and returns fixed-dimension vectors.
type fakeEmbedder struct {
	batchCalls int
	texts      []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	f.texts = texts
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

// fakeStore records everything upserted.
type fakeStore struct {
	ensureCalls int
	upsertCalls int
	dimension   int
	records     []index.Record
}

func (f *fakeStore) EnsureIndex(ctx context.Context, name string, dimension int) error {
	f.ensureCalls++
	f.dimension = dimension
	return nil
}

func (f *fakeStore) Upsert(ctx context.Context, name string, records []index.Record) error {
	f.upsertCalls++
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeStore) Query(ctx context.Context, name string, vector []float32, topK int) ([]index.Result, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Embedding: config.EmbeddingConfig{Dimension: 3},
		Index:     config.IndexConfig{Name: "documents", BatchSize: 500},
		RAG:       config.RAGConfig{ChunkSize: 500, ChunkOverlap: 50, TopK: 5},
	}
}

func TestIngestEmptyPages(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	in := NewIngestor(embedder, store, testConfig())

	count, err := in.Ingest(context.Background(), "empty.pdf", nil)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if count != 0 {
		t.Errorf("got %d chunks, want 0", count)
	}
	if embedder.batchCalls != 0 || store.ensureCalls != 0 || store.upsertCalls != 0 {
		t.Error("empty input must not contact any backend")
	}
}

func TestIngestTwoPageDocument(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	in := NewIngestor(embedder, store, testConfig())

	page1 := strings.Repeat("Page1 text... ", 60) // 840 chars -> 2 chunks
	page2 := strings.Repeat("Page2 text... ", 30) // 420 chars -> 1 chunk
	pages := []models.Page{
		{PageNumber: 1, Text: page1},
		{PageNumber: 2, Text: page2},
	}

	count, err := in.Ingest(context.Background(), "doc.pdf", pages)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	want := chunkCount(len(page1), 500, 50) + chunkCount(len(page2), 500, 50)
	if count != want {
		t.Errorf("got %d chunks, want %d", count, want)
	}
	if embedder.batchCalls != 1 {
		t.Errorf("expected one batch embed call, got %d", embedder.batchCalls)
	}
	if store.ensureCalls != 1 {
		t.Errorf("expected one ensure call, got %d", store.ensureCalls)
	}
	if store.dimension != 3 {
		t.Errorf("index dimension %d, want 3", store.dimension)
	}
	if len(store.records) != count {
		t.Fatalf("stored %d records, want %d", len(store.records), count)
	}

	seen := make(map[string]bool)
	for _, r := range store.records {
		if r.ID == "" || seen[r.ID] {
			t.Errorf("record ID %q not unique", r.ID)
		}
		seen[r.ID] = true
		if r.Meta.SourceFilename != "doc.pdf" {
			t.Errorf("record filename %q, want doc.pdf", r.Meta.SourceFilename)
		}
		switch {
		case strings.Contains(r.Meta.Text, "Page1"):
			if r.Meta.PageNumber != 1 {
				t.Errorf("page 1 chunk tagged with page %d", r.Meta.PageNumber)
			}
		case strings.Contains(r.Meta.Text, "Page2"):
			if r.Meta.PageNumber != 2 {
				t.Errorf("page 2 chunk tagged with page %d", r.Meta.PageNumber)
			}
		}
	}
}

func TestIngestInvalidChunking(t *testing.T) {
	cfg := testConfig()
	cfg.RAG.ChunkOverlap = 500
	in := NewIngestor(&fakeEmbedder{}, &fakeStore{}, cfg)

	_, err := in.Ingest(context.Background(), "doc.pdf", []models.Page{{PageNumber: 1, Text: "text"}})
	if err == nil {
		t.Fatal("overlap == window must fail fast")
	}
}

func chunkCount(textLen, window, overlap int) int {
	stride := window - overlap
	n := textLen - overlap
	if n < 1 {
		n = 1
	}
	return (n + stride - 1) / stride
}
