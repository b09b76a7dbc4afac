// Package ingest turns source documents into embedded topic records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"milestone-rag/internal/chunker"
	"milestone-rag/internal/embedding"
	"milestone-rag/internal/helper"
	"milestone-rag/internal/models"
	"milestone-rag/internal/parser"
)

const (
	defaultChunkWords  = 800
	defaultConcurrency = 40
)

var ErrEmbedderRequired = errors.New("ingest: embedder is required")

// ChunkFailure records one chunk whose embedding call failed.
type ChunkFailure struct {
	PageNumber int
	ChunkID    int
	Err        error
}

// Result holds the records produced from one document plus any
// per-chunk embedding failures. A failed chunk never aborts the rest
// of the batch.
type Result struct {
	Topics   []models.Topic
	Failures []ChunkFailure
}

// Pipeline embeds document chunks with bounded concurrency: at most
// `concurrency` embedding calls are in flight at any instant.
type Pipeline struct {
	embedder    embedding.Embedder
	chunkWords  int
	concurrency int
	logger      zerolog.Logger
}

func NewPipeline(embedder embedding.Embedder, chunkWords, concurrency int, logger zerolog.Logger) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if chunkWords < 1 {
		chunkWords = defaultChunkWords
	}
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &Pipeline{
		embedder:    embedder,
		chunkWords:  chunkWords,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

type chunkJob struct {
	pageNumber int
	chunkID    int
	text       string
}

// Ingest extracts, chunks and embeds one document.
func (p *Pipeline) Ingest(ctx context.Context, filePath string) (*Result, error) {
	pages, err := parser.Pages(filePath)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filePath, err)
	}
	return p.IngestPages(ctx, filepath.Base(filePath), pages)
}

// IngestPages chunks the given pages and embeds every chunk through
// the worker pool. Pages with no extractable text are skipped.
// Completion order is not deterministic; only the progress count is.
func (p *Pipeline) IngestPages(ctx context.Context, fileName string, pages []parser.Page) (*Result, error) {
	// collect every chunk up front so progress has a fixed denominator
	var jobs []chunkJob
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for i, text := range chunker.Words(page.Text, p.chunkWords) {
			jobs = append(jobs, chunkJob{pageNumber: page.Number, chunkID: i, text: text})
		}
	}
	if len(jobs) == 0 {
		p.logger.Info().Str("file", fileName).Msg("No text extracted")
		return &Result{}, nil
	}

	pool, err := ants.NewPool(p.concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		done   atomic.Int64
		mu     sync.Mutex
		result Result
	)
	total := len(jobs)

	for _, job := range jobs {
		job := job
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			topic, err := p.embedChunk(ctx, fileName, job)
			mu.Lock()
			if err != nil {
				result.Failures = append(result.Failures, ChunkFailure{
					PageNumber: job.pageNumber,
					ChunkID:    job.chunkID,
					Err:        err,
				})
			} else {
				result.Topics = append(result.Topics, topic)
			}
			mu.Unlock()

			n := done.Add(1)
			p.logger.Info().
				Str("file", fileName).
				Int64("done", n).
				Int("total", total).
				Str("progress", fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)).
				Msg("Embedded chunk")
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			result.Failures = append(result.Failures, ChunkFailure{
				PageNumber: job.pageNumber,
				ChunkID:    job.chunkID,
				Err:        submitErr,
			})
			mu.Unlock()
		}
	}
	wg.Wait()

	return &result, nil
}

func (p *Pipeline) embedChunk(ctx context.Context, fileName string, job chunkJob) (models.Topic, error) {
	vector, err := p.embedder.Embed(ctx, job.text)
	if err != nil {
		return models.Topic{}, err
	}
	key, err := helper.GenerateUUID()
	if err != nil {
		return models.Topic{}, err
	}
	return models.Topic{
		Key:       key,
		Title:     fmt.Sprintf("Page %d - %s", job.pageNumber, fileName),
		Content:   job.text,
		Source:    fmt.Sprintf("%s (Page %d)", fileName, job.pageNumber),
		FileName:  fileName,
		Embedding: vector,
	}, nil
}
