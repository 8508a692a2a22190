package generator

import (
	"strings"
	"testing"

	"docqa/internal/models"
)

func sampleChunks() []models.RetrievedResult {
	return []models.RetrievedResult{
		{Text: "The capital of France is Paris.", PageNumber: 3, SourceFilename: "geo.pdf", Score: 0.91},
		{Text: "Paris has about two million inhabitants.", PageNumber: 7, SourceFilename: "geo.pdf", Score: 0.84},
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	question := "What is the capital of France?"
	first := BuildPrompt(question, sampleChunks())
	second := BuildPrompt(question, sampleChunks())
	if first != second {
		t.Error("same input must produce byte-identical prompts")
	}
}

func TestBuildPromptShape(t *testing.T) {
	question := "What is the capital of France?"
	prompt := BuildPrompt(question, sampleChunks())

	// One labeled block per chunk with page and filename provenance.
	if !strings.Contains(prompt, "[Chunk 1 | Page 3 | File: geo.pdf]") {
		t.Error("first chunk header missing")
	}
	if !strings.Contains(prompt, "[Chunk 2 | Page 7 | File: geo.pdf]") {
		t.Error("second chunk header missing")
	}
	// Explicit don't-know instruction.
	if !strings.Contains(prompt, "not available in the provided document") {
		t.Error("don't-know instruction missing")
	}
	// Context appears before the question.
	ctxIdx := strings.Index(prompt, "The capital of France is Paris.")
	qIdx := strings.Index(prompt, "Question: "+question)
	if ctxIdx < 0 || qIdx < 0 || ctxIdx > qIdx {
		t.Error("context must precede the question")
	}
}

func TestBuildPromptNumbersChunksInOrder(t *testing.T) {
	prompt := BuildPrompt("q", sampleChunks())
	first := strings.Index(prompt, "[Chunk 1")
	second := strings.Index(prompt, "[Chunk 2")
	if first < 0 || second < 0 || first > second {
		t.Error("chunks must be numbered from 1 in input order")
	}
}
