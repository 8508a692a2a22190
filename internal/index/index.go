// Package index defines the vector index port. Implementations own the
// records once upserted; callers hold no further reference to them.
package index

import (
	"context"
	"fmt"
)

// Error marks vector index failures: index creation (other than
// already-exists), upsert and query errors. Not retried by the core.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("index %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Metadata travels with every stored vector and comes back on query hits.
type Metadata struct {
	Text           string
	PageNumber     int
	SourceFilename string
}

// Record is one vector plus its metadata, keyed by a unique ID.
type Record struct {
	ID     string
	Vector []float32
	Meta   Metadata
}

// Result is one query hit, scored by similarity.
type Result struct {
	Meta  Metadata
	Score float64
}

// Store is the vector index port. EnsureIndex is idempotent: an
// already-existing index is success. Upsert may split the records into
// multiple backend calls; record order across calls is not guaranteed.
// Query returns at most topK results ordered by descending similarity.
type Store interface {
	EnsureIndex(ctx context.Context, name string, dimension int) error
	Upsert(ctx context.Context, name string, records []Record) error
	Query(ctx context.Context, name string, vector []float32, topK int) ([]Result, error)
}
