package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"milestone-rag/internal/chunker"
	"milestone-rag/internal/config"
	"milestone-rag/internal/embedding"
	"milestone-rag/internal/helper"
	"milestone-rag/internal/ingest"
	"milestone-rag/internal/llmservice"
	"milestone-rag/internal/models"
	"milestone-rag/internal/parser"
	"milestone-rag/internal/rag"
	"milestone-rag/internal/vectorstore"
	chromemstore "milestone-rag/internal/vectorstore/chromem"
	memorystore "milestone-rag/internal/vectorstore/memory"
	postgresstore "milestone-rag/internal/vectorstore/postgres"
	qdrantstore "milestone-rag/internal/vectorstore/qdrant"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	configPath := flag.String("config", configFilePath, "Path to the config file")
	docsDir := flag.String("docs", "", "Directory of documents to ingest")
	query := flag.String("query", "", "Answer a single question and exit")
	dryRun := flag.Bool("dry-run", false, "Parse and chunk documents without embedding or storing")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx := context.Background()

	if *dryRun {
		if *docsDir == "" {
			log.Fatal().Msg("Dry run needs a -docs directory")
		}
		dryRunDocs(*docsDir, cfg)
		return
	}

	embedder, err := embedding.NewOllamaEmbedder(&cfg.EmbedLLM, cfg.RAG.Dimension)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}
	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector index")
	}

	if *docsDir != "" {
		ingestDocs(ctx, cfg, embedder, store, *docsDir)
	}

	streamer, err := llmservice.NewOllamaStreamer(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat client")
	}

	controller := rag.NewController(streamer,
		time.Duration(cfg.RAG.AnswerTimeoutSecs)*time.Second,
		time.Duration(cfg.RAG.WarmupTimeoutSecs)*time.Second,
		log.Logger)
	controller.Warmup(ctx)

	retriever := rag.NewRetriever(embedder, store, cfg.RAG.SearchLimit)
	assembler := rag.NewAssembler(cfg.RAG.ScoreThreshold, cfg.RAG.ContextChars, cfg.RAG.MemoryChars, cfg.RAG.MemoryTurns)
	memory := rag.NewChatMemory()

	if *query != "" {
		if err := answer(ctx, retriever, assembler, controller, memory, *query); err != nil {
			log.Fatal().Err(err).Msg("Error answering query")
		}
		return
	}

	runLoop(ctx, retriever, assembler, controller, memory)
}

func newStore(cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.Store.Type {
	case "chromem", "":
		return chromemstore.NewStore(cfg.Store.Path, cfg.Store.Collection, false)
	case "qdrant":
		if cfg.Store.Qdrant == nil {
			return nil, fmt.Errorf("qdrant store selected but not configured")
		}
		return qdrantstore.NewStore(qdrantstore.Config{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     cfg.Store.Qdrant.APIKey,
			Collection: cfg.Store.Collection,
			Dimension:  cfg.RAG.Dimension,
		}), nil
	case "postgres":
		if cfg.Store.Postgres == nil {
			return nil, fmt.Errorf("postgres store selected but not configured")
		}
		return postgresstore.NewStore(cfg.Store.Postgres.DSN, cfg.Store.Postgres.Password, cfg.Store.Postgres.Debug), nil
	case "memory":
		return memorystore.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}
}

func documentPaths(dir string) []string {
	var paths []string
	for _, pattern := range []string{"*.pdf", "*.txt"} {
		found, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			log.Fatal().Err(err).Msg("Error listing documents")
		}
		paths = append(paths, found...)
	}
	return paths
}

func ingestDocs(ctx context.Context, cfg *config.Config, embedder embedding.Embedder, store vectorstore.Store, dir string) {
	pipeline, err := ingest.NewPipeline(embedder, cfg.RAG.ChunkWords, cfg.RAG.EmbedConcurrency, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating ingestion pipeline")
	}

	for _, path := range documentPaths(dir) {
		fileName := filepath.Base(path)

		seen, err := ingest.IsIngested(ctx, store, cfg.RAG.Dimension, fileName)
		if err != nil {
			log.Error().Err(err).Str("file", fileName).Msg("Error checking index")
			continue
		}
		if seen {
			log.Info().Str("file", fileName).Msg("Skipping (already ingested)")
			continue
		}

		log.Info().Str("file", fileName).Msg("Processing document")
		result, err := pipeline.Ingest(ctx, path)
		if err != nil {
			log.Error().Err(err).Str("file", fileName).Msg("Error ingesting document")
			continue
		}
		for _, f := range result.Failures {
			log.Warn().Err(f.Err).Int("page", f.PageNumber).Int("chunk", f.ChunkID).Msg("Chunk embedding failed")
		}
		if len(result.Topics) == 0 {
			continue
		}
		if err := store.Upsert(ctx, result.Topics...); err != nil {
			log.Error().Err(err).Str("file", fileName).Msg("Error storing records")
			continue
		}
		log.Info().Str("file", fileName).Int("records", len(result.Topics)).Msg("New content added for vector search")
	}
}

func runLoop(ctx context.Context, retriever *rag.Retriever, assembler *rag.Assembler, controller *rag.Controller, memory *rag.ChatMemory) {
	fmt.Println("Milestone RAG ready! Ask questions or type 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYour question: ")
		if !scanner.Scan() {
			return
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "quit") {
			fmt.Println("Goodbye!")
			return
		}
		if err := answer(ctx, retriever, assembler, controller, memory, query); err != nil {
			log.Error().Err(err).Msg("Error answering query")
		}
	}
}

func answer(ctx context.Context, retriever *rag.Retriever, assembler *rag.Assembler, controller *rag.Controller, memory *rag.ChatMemory, query string) error {
	matches, err := retriever.Retrieve(ctx, query)
	if err != nil {
		return err
	}

	prompt := assembler.Build(matches, memory, query)
	memory.AddMessage(query)

	response, timedOut, err := controller.Generate(ctx, prompt.Text, func(fragment string) {
		fmt.Print(fragment)
	})
	if err != nil {
		return err
	}
	if timedOut {
		// the marker is part of the stored answer but was never streamed
		fmt.Print(models.TimeoutMarker)
	}
	memory.AddMessage(response)

	fmt.Println()
	if len(prompt.References) > 0 {
		fmt.Println("\nReferences used:")
		for _, ref := range prompt.References {
			fmt.Printf("- %s\n", ref)
		}
	}
	return nil
}

// dryRunDocs shows what ingestion would embed without calling any
// external service.
func dryRunDocs(dir string, cfg *config.Config) {
	type pageSummary struct {
		File   string
		Page   int
		Chunks int
	}

	var summaries []pageSummary
	for _, path := range documentPaths(dir) {
		pages, err := parser.Pages(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Error parsing document")
			continue
		}
		fileName := filepath.Base(path)
		for _, page := range pages {
			if strings.TrimSpace(page.Text) == "" {
				continue
			}
			summaries = append(summaries, pageSummary{
				File:   fileName,
				Page:   page.Number,
				Chunks: len(chunker.Words(page.Text, cfg.RAG.ChunkWords)),
			})
		}
	}
	helper.PrettyPrint(summaries)
}
