package models

// Page is one extracted document page. Pages are transient: they exist
// between extraction and chunking and are not persisted.
type Page struct {
	PageNumber int
	Text       string
}

// Chunk represents a windowed slice of a page with metadata
type Chunk struct {
	Text       string
	PageNumber int
}

// RetrievedResult is one similarity match returned by the vector index,
// ordered by descending score within a query response.
type RetrievedResult struct {
	Text           string
	PageNumber     int
	SourceFilename string
	Score          float64
}

// Answer is the terminal output of one pipeline invocation. Sources holds
// the exact ordered results the answer was grounded on.
type Answer struct {
	Text    string
	Sources []RetrievedResult
}
