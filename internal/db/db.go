// Package db implements the index.Store port on Postgres with the pgvector
// extension, through bun.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docqa/internal/config"
	"docqa/internal/index"
)

// embeddingDim matches the vector(768) column type on Document. Changing it
// requires a migration of the documents table.
const embeddingDim = 768

// Document is one stored chunk vector with its provenance metadata.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            string    `bun:"id,pk"`
	IndexName     string    `bun:"index_name,notnull"`
	Text          string    `bun:"text,notnull"`
	PageNumber    int       `bun:"page_number,notnull"`
	SourceFile    string    `bun:"source_filename,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
}

func ConnectDB(cfg *config.IndexConfig) (*sql.DB, error) {
	dsn := cfg.DSN + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// Store implements index.Store on a documents table. All index names share
// the table and are told apart by the index_name column.
type Store struct {
	db        *bun.DB
	batchSize int
}

func NewStore(db *bun.DB, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Store{db: db, batchSize: batchSize}
}

// EnsureIndex creates the documents table if absent. The vector column width
// is fixed at schema definition, so any other configured dimension is a
// configuration error rather than something to paper over at runtime.
func (s *Store) EnsureIndex(ctx context.Context, name string, dimension int) error {
	if dimension != embeddingDim {
		return fmt.Errorf("%w: postgres backend stores vector(%d), got dimension %d",
			config.ErrInvalid, embeddingDim, dimension)
	}
	if _, err := s.db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx); err != nil {
		return &index.Error{Op: "create", Err: err}
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, name string, records []index.Record) error {
	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		docs := make([]Document, 0, end-start)
		for _, r := range records[start:end] {
			docs = append(docs, Document{
				ID:         r.ID,
				IndexName:  name,
				Text:       r.Meta.Text,
				PageNumber: r.Meta.PageNumber,
				SourceFile: r.Meta.SourceFilename,
				Embedding:  r.Vector,
			})
		}
		_, err := s.db.NewInsert().
			Model(&docs).
			On("CONFLICT (id) DO UPDATE").
			Set("embedding = EXCLUDED.embedding").
			Set("text = EXCLUDED.text").
			Exec(ctx)
		if err != nil {
			return &index.Error{Op: "upsert", Err: err}
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, name string, vector []float32, topK int) ([]index.Result, error) {
	if topK <= 0 {
		return nil, &index.Error{Op: "query", Err: fmt.Errorf("top_k must be positive, got %d", topK)}
	}
	var rows []struct {
		Document
		Score float64 `bun:"score"`
	}
	err := s.db.NewSelect().
		Model((*Document)(nil)).
		Column("text", "page_number", "source_filename").
		ColumnExpr("1 - (embedding <=> ?) AS score", vector).
		Where("index_name = ?", name).
		OrderExpr("embedding <=> ?", vector).
		Limit(topK).
		Scan(ctx, &rows)
	if err != nil {
		return nil, &index.Error{Op: "query", Err: err}
	}
	results := make([]index.Result, 0, len(rows))
	for _, r := range rows {
		results = append(results, index.Result{
			Meta: index.Metadata{
				Text:           r.Text,
				PageNumber:     r.PageNumber,
				SourceFilename: r.SourceFile,
			},
			Score: r.Score,
		})
	}
	return results, nil
}
