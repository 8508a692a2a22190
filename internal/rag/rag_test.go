package rag

import (
	"context"
	"errors"
	"testing"

	"docqa/internal/models"
	"docqa/internal/retriever"
)

type stubRetriever struct {
	results  []models.RetrievedResult
	err      error
	lastTopK int
}

func (s *stubRetriever) Retrieve(ctx context.Context, question string, topK int) ([]models.RetrievedResult, error) {
	s.lastTopK = topK
	return s.results, s.err
}

type stubGenerator struct {
	answer string
	err    error
	chunks []models.RetrievedResult
}

func (s *stubGenerator) Generate(ctx context.Context, question string, chunks []models.RetrievedResult) (string, error) {
	s.chunks = chunks
	return s.answer, s.err
}

func TestAskReturnsAnswerWithSources(t *testing.T) {
	results := []models.RetrievedResult{
		{Text: "first", PageNumber: 1, SourceFilename: "a.pdf", Score: 0.9},
		{Text: "second", PageNumber: 2, SourceFilename: "a.pdf", Score: 0.8},
	}
	ret := &stubRetriever{results: results}
	gen := &stubGenerator{answer: "the answer"}
	pipeline := NewRAG(ret, gen, 5)

	answer, err := pipeline.Ask(context.Background(), "what?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer.Text != "the answer" {
		t.Errorf("got %q", answer.Text)
	}
	if len(answer.Sources) != len(results) {
		t.Fatalf("got %d sources, want %d", len(answer.Sources), len(results))
	}
	// The generator must see the exact ordered results the caller gets back.
	for i := range results {
		if answer.Sources[i] != results[i] || gen.chunks[i] != results[i] {
			t.Errorf("source %d not passed through in order", i)
		}
	}
}

func TestAskDefaultTopK(t *testing.T) {
	ret := &stubRetriever{}
	pipeline := NewRAG(ret, &stubGenerator{answer: "ok"}, 0)
	if _, err := pipeline.Ask(context.Background(), "q"); err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if ret.lastTopK != retriever.DefaultTopK {
		t.Errorf("top_k %d, want default %d", ret.lastTopK, retriever.DefaultTopK)
	}
}

func TestAskPropagatesRetrieverError(t *testing.T) {
	wantErr := errors.New("index down")
	pipeline := NewRAG(&stubRetriever{err: wantErr}, &stubGenerator{}, 5)
	if _, err := pipeline.Ask(context.Background(), "q"); !errors.Is(err, wantErr) {
		t.Errorf("want retriever error, got %v", err)
	}
}

func TestAskPropagatesGeneratorError(t *testing.T) {
	wantErr := errors.New("model down")
	pipeline := NewRAG(&stubRetriever{}, &stubGenerator{err: wantErr}, 5)
	if _, err := pipeline.Ask(context.Background(), "q"); !errors.Is(err, wantErr) {
		t.Errorf("want generator error, got %v", err)
	}
}
