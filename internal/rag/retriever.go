// Package rag contains the retrieval engine, context assembly,
// conversation memory and the streaming generation controller.
package rag

import (
	"context"
	"fmt"

	"milestone-rag/internal/embedding"
	"milestone-rag/internal/vectorstore"
)

// Retriever turns a question into ranked context snippets.
type Retriever struct {
	embedder embedding.Embedder
	store    vectorstore.Store
	topK     int
}

func NewRetriever(embedder embedding.Embedder, store vectorstore.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve embeds the query and returns the raw top-k matches in
// descending score order. Score filtering happens later, when the
// context is assembled.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]vectorstore.Match, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	matches, err := r.store.Search(ctx, vector, r.topK, nil)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return matches, nil
}
