// Package chromem backs the vector index with an embedded chromem-go
// database persisted under a local directory.
package chromem

import (
	"context"
	"fmt"
	"runtime"

	chromemgo "github.com/philippgille/chromem-go"

	"milestone-rag/internal/models"
	"milestone-rag/internal/vectorstore"
)

type Store struct {
	db         *chromemgo.DB
	collection *chromemgo.Collection
	name       string
}

// NewStore opens (or creates) a chromem database. With inMemory set
// nothing touches disk, which is what dry runs use.
func NewStore(dbPath, collectionName string, inMemory bool) (*Store, error) {
	var db *chromemgo.DB
	var err error
	if inMemory {
		db = chromemgo.NewDB()
	} else {
		db, err = chromemgo.NewPersistentDB(dbPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}
	return &Store{db: db, name: collectionName}, nil
}

func (s *Store) EnsureCollection(ctx context.Context) error {
	c, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	s.collection = c
	return nil
}

func (s *Store) Upsert(ctx context.Context, topics ...models.Topic) error {
	docs := make([]chromemgo.Document, len(topics))
	for i, t := range topics {
		docs[i] = chromemgo.Document{
			ID:      t.Key,
			Content: t.Content,
			Metadata: map[string]string{
				"title":                   t.Title,
				"source":                  t.Source,
				vectorstore.FieldFileName: t.FileName,
			},
			Embedding: t.Embedding,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Match, error) {
	// chromem rejects result counts above the stored document count
	if n := s.collection.Count(); limit > n {
		limit = n
	}
	if limit <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryWithOptions(ctx, chromemgo.QueryOptions{
		QueryEmbedding: vector,
		NResults:       limit,
		Where:          filter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	matches := make([]vectorstore.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, vectorstore.Match{
			Topic: models.Topic{
				Key:       r.ID,
				Title:     r.Metadata["title"],
				Content:   r.Content,
				Source:    r.Metadata["source"],
				FileName:  r.Metadata[vectorstore.FieldFileName],
				Embedding: r.Embedding,
			},
			Score: r.Similarity,
		})
	}
	return matches, nil
}
