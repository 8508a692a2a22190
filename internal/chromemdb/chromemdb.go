// Package chromemdb implements the index.Store port on an embedded chromem-go
// database, for local runs without a vector database server.
package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docqa/internal/config"
	"docqa/internal/index"
)

const compress = false

// Store keeps one chromem collection per index name.
type Store struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewStore opens a persistent database at cfg.Path, or an in-memory one when
// the path is empty.
func NewStore(cfg *config.IndexConfig) (*Store, error) {
	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, &index.Error{Op: "open", Err: err}
		}
	}
	return &Store{db: db, collections: make(map[string]*chromem.Collection)}, nil
}

// EnsureIndex creates or reopens the named collection. The dimension is fixed
// by the first vector chromem sees; it is accepted here only to satisfy the
// port contract.
func (s *Store) EnsureIndex(ctx context.Context, name string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return nil
	}
	c, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return &index.Error{Op: "create", Err: err}
	}
	s.collections[name] = c
	return nil
}

func (s *Store) collection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	// A persistent database reloads its collections on open, so a process
	// that only queries never calls EnsureIndex. Pick those up here.
	if c := s.db.GetCollection(name, nil); c != nil {
		s.collections[name] = c
		return c, nil
	}
	return nil, &index.Error{Op: "lookup", Err: fmt.Errorf("collection %q does not exist", name)}
}

func (s *Store) Upsert(ctx context.Context, name string, records []index.Record) error {
	c, err := s.collection(name)
	if err != nil {
		return err
	}
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Meta.Text,
			Embedding: r.Vector,
			Metadata: map[string]string{
				"page":     strconv.Itoa(r.Meta.PageNumber),
				"filename": r.Meta.SourceFilename,
			},
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return &index.Error{Op: "upsert", Err: err}
	}
	log.Debug().Str("collection", name).Int("count", len(docs)).Msg("Stored documents")
	return nil
}

func (s *Store) Query(ctx context.Context, name string, vector []float32, topK int) ([]index.Result, error) {
	if topK <= 0 {
		return nil, &index.Error{Op: "query", Err: fmt.Errorf("top_k must be positive, got %d", topK)}
	}
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	// chromem rejects nResults larger than the collection.
	if n := c.Count(); topK > n {
		if n == 0 {
			return nil, nil
		}
		topK = n
	}
	hits, err := c.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, &index.Error{Op: "query", Err: err}
	}
	results := make([]index.Result, 0, len(hits))
	for _, h := range hits {
		page, _ := strconv.Atoi(h.Metadata["page"])
		results = append(results, index.Result{
			Meta: index.Metadata{
				Text:           h.Content,
				PageNumber:     page,
				SourceFilename: h.Metadata["filename"],
			},
			Score: float64(h.Similarity),
		})
	}
	return results, nil
}
