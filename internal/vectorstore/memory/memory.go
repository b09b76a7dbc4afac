// Package memory is an in-process cosine-similarity index. It backs
// tests and dry runs; data does not survive the process.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"milestone-rag/internal/models"
	"milestone-rag/internal/vectorstore"
)

type Store struct {
	mu     sync.RWMutex
	topics []models.Topic
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) EnsureCollection(ctx context.Context) error {
	return nil
}

func (s *Store) Upsert(ctx context.Context, topics ...models.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range topics {
		replaced := false
		for i := range s.topics {
			if s.topics[i].Key == t.Key {
				s.topics[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			s.topics = append(s.topics, t)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []vectorstore.Match
	for _, t := range s.topics {
		if name, ok := filter[vectorstore.FieldFileName]; ok && t.FileName != name {
			continue
		}
		matches = append(matches, vectorstore.Match{Topic: t, Score: cosine(vector, t.Embedding)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// cosine returns 0 for mismatched or zero-norm vectors, so the
// all-zero probe used by the duplicate guard ranks nothing above
// anything else.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
