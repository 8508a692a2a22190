// Package chunker splits extracted page text into overlapping character
// windows. Chunks are the atomic unit of embedding and retrieval; each one
// keeps the page number it came from.
package chunker

import (
	"fmt"

	"docqa/internal/config"
	"docqa/internal/models"
)

// Split slides a window of windowLen characters across every page with a
// stride of windowLen-overlap. Output order follows page order, then offset
// order within a page. A window whose text is fully contained in the previous
// window is not emitted, so for a page of L characters the chunk count is
// ceil(max(L-overlap, 1) / (windowLen-overlap)).
func Split(pages []models.Page, windowLen, overlap int) ([]models.Chunk, error) {
	if windowLen <= 0 {
		return nil, fmt.Errorf("%w: chunk window must be positive, got %d", config.ErrInvalid, windowLen)
	}
	if overlap < 0 || overlap >= windowLen {
		// A non-positive stride would never advance.
		return nil, fmt.Errorf("%w: overlap %d must satisfy 0 <= overlap < window %d",
			config.ErrInvalid, overlap, windowLen)
	}

	stride := windowLen - overlap
	var chunks []models.Chunk
	for _, page := range pages {
		// Window over runes so multi-byte text is never cut mid-character.
		text := []rune(page.Text)
		if len(text) == 0 {
			continue
		}
		for start := 0; ; start += stride {
			end := start + windowLen
			if end > len(text) {
				end = len(text)
			}
			chunks = append(chunks, models.Chunk{
				Text:       string(text[start:end]),
				PageNumber: page.PageNumber,
			})
			if start+stride >= len(text)-overlap {
				break
			}
		}
	}
	return chunks, nil
}
