// Package vectorstore defines the similarity-search port used by
// ingestion and retrieval. Backends live in subpackages.
package vectorstore

import (
	"context"

	"milestone-rag/internal/models"
)

// FieldFileName is the payload field carrying the deduplication key.
const FieldFileName = "file_name"

// Filter restricts a search to records whose payload field equals the
// given value. The only field used today is FieldFileName.
type Filter map[string]string

// Match pairs a stored topic with its similarity score.
type Match struct {
	Topic models.Topic
	Score float32
}

// Store is a black-box similarity index over topic records. All
// backends rank with cosine similarity.
type Store interface {
	// EnsureCollection creates the backing collection if it does not exist.
	EnsureCollection(ctx context.Context) error

	// Upsert stores records by key.
	Upsert(ctx context.Context, topics ...models.Topic) error

	// Search returns up to limit matches ranked by descending score.
	// A nil filter searches the whole collection.
	Search(ctx context.Context, vector []float32, limit int, filter Filter) ([]Match, error)
}
