package embedding

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"milestone-rag/internal/config"
)

// Embedder converts free text into a fixed-dimension vector. The
// dimension is constant for the lifetime of an index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// OllamaEmbedder generates embeddings through an Ollama server.
type OllamaEmbedder struct {
	impl      *embeddings.EmbedderImpl
	dimension int
}

// NewOllamaEmbedder creates an embedder backed by the configured
// Ollama embedding model.
func NewOllamaEmbedder(cfg *config.LLMConfig, dimension int) (*OllamaEmbedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return &OllamaEmbedder{impl: impl, dimension: dimension}, nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.impl.EmbedQuery(ctx, text)
}

func (e *OllamaEmbedder) Dimension() int {
	return e.dimension
}
