package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docqa/internal/chromemdb"
	"docqa/internal/config"
	"docqa/internal/db"
	"docqa/internal/embedding"
	"docqa/internal/extractor"
	"docqa/internal/generator"
	"docqa/internal/index"
	"docqa/internal/index/endee"
	"docqa/internal/ingest"
	"docqa/internal/rag"
	"docqa/internal/retriever"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	filePath := flag.String("file", "", "Path to a document to ingest")
	query := flag.String("query", "", "Question to answer from the ingested documents")
	configPath := flag.String("config", configFilePath, "Path to the config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Credentials live in the environment; a .env file is optional.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	switch {
	case *filePath != "":
		ingestFile(ctx, cfg, *filePath)
	case *query != "":
		askQuestion(ctx, cfg, *query)
	default:
		log.Fatal().Msg("Provide a document with -file or a question with -query")
	}
}

func ingestFile(ctx context.Context, cfg *config.Config, filePath string) {
	embedder, err := embedding.Shared(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	store, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector index")
	}

	pages, err := extractor.ExtractPages(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error extracting document")
	}

	ingestor := ingest.NewIngestor(embedder, store, cfg)
	count, err := ingestor.Ingest(ctx, filepath.Base(filePath), pages)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	fmt.Printf("Ingested %d chunks from %s\n", count, filePath)
}

func askQuestion(ctx context.Context, cfg *config.Config, question string) {
	embedder, err := embedding.Shared(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	store, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector index")
	}

	pipeline := rag.NewRAG(
		retriever.NewRetriever(embedder, store, cfg.Index.Name),
		generator.NewGenerator(&cfg.LLM),
		cfg.RAG.TopK,
	)

	answer, err := pipeline.Ask(ctx, question)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering question")
	}

	fmt.Printf("Question:\n%s\n\n", question)
	fmt.Printf("Answer:\n%s\n\n", answer.Text)
	fmt.Println("Sources:")
	for i, src := range answer.Sources {
		fmt.Printf("  %d. %s (page %d, score %.3f)\n", i+1, src.SourceFilename, src.PageNumber, src.Score)
	}
}

func newStore(cfg *config.Config) (index.Store, error) {
	switch cfg.Index.Backend {
	case "", "endee":
		return endee.NewClient(&cfg.Index), nil
	case "chromem":
		return chromemdb.NewStore(&cfg.Index)
	case "postgres":
		sqldb, err := db.ConnectDB(&cfg.Index)
		if err != nil {
			return nil, err
		}
		return db.NewStore(db.NewDB(sqldb, cfg.Index.Debug), cfg.Index.BatchSize), nil
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", config.ErrInvalid, cfg.Index.Backend)
	}
}
