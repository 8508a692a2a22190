package generator

import (
	"fmt"
	"strings"

	"docqa/internal/models"
)

// BuildPrompt assembles the grounding prompt: one labeled block per chunk
// with page and filename provenance, the context before the question, and an
// explicit instruction to refuse answers not present in the context. Pure
// function; downstream components rely on this exact shape for groundedness.
func BuildPrompt(question string, chunks []models.RetrievedResult) string {
	var context strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			context.WriteString("\n\n")
		}
		fmt.Fprintf(&context, "[Chunk %d | Page %d | File: %s]\n%s",
			i+1, chunk.PageNumber, chunk.SourceFilename, chunk.Text)
	}

	var prompt strings.Builder
	prompt.WriteString("Answer the following question using ONLY the context provided below. ")
	prompt.WriteString("If the answer cannot be found in the context, clearly state that ")
	prompt.WriteString("the information is not available in the provided document.\n\n")
	prompt.WriteString("Context:\n")
	prompt.WriteString(context.String())
	prompt.WriteString("\n\nQuestion: ")
	prompt.WriteString(question)
	prompt.WriteString("\n\nAnswer:")
	return prompt.String()
}
