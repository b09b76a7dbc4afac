package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milestone-rag/internal/models"
	"milestone-rag/internal/parser"
	memorystore "milestone-rag/internal/vectorstore/memory"
)

// fakeEmbedder returns deterministic vectors and tracks the high-water
// mark of concurrent in-flight calls.
type fakeEmbedder struct {
	dim         int
	delay       time.Duration
	failSubstr  string
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	calls       atomic.Int64
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if cur <= max || f.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	f.calls.Add(1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failSubstr != "" && strings.Contains(text, f.failSubstr) {
		return nil, errors.New("embedding unavailable")
	}
	v := make([]float32, f.dim)
	v[0] = 1
	return v, nil
}

func (f *fakeEmbedder) Dimension() int {
	return f.dim
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestNewPipelineRequiresEmbedder(t *testing.T) {
	_, err := NewPipeline(nil, 800, 40, zerolog.Nop())
	assert.Equal(t, ErrEmbedderRequired, err)
}

func TestIngestPagesRecordCounts(t *testing.T) {
	emb := &fakeEmbedder{dim: 768}
	p, err := NewPipeline(emb, 800, 40, zerolog.Nop())
	require.NoError(t, err)

	// page 1 overflows the cap by one word, page 2 fits in one chunk
	pages := []parser.Page{
		{Number: 1, Text: words(801)},
		{Number: 2, Text: words(50)},
	}
	result, err := p.IngestPages(context.Background(), "manual.pdf", pages)
	require.NoError(t, err)
	require.Empty(t, result.Failures)
	require.Len(t, result.Topics, 3)

	keys := map[string]bool{}
	pageCounts := map[int]int{}
	for _, topic := range result.Topics {
		assert.False(t, keys[topic.Key], "duplicate key %s", topic.Key)
		keys[topic.Key] = true
		assert.Len(t, topic.Embedding, 768)
		assert.Equal(t, "manual.pdf", topic.FileName)
		assert.NotEmpty(t, topic.Content)

		switch topic.Title {
		case "Page 1 - manual.pdf":
			assert.Equal(t, "manual.pdf (Page 1)", topic.Source)
			pageCounts[1]++
		case "Page 2 - manual.pdf":
			assert.Equal(t, "manual.pdf (Page 2)", topic.Source)
			pageCounts[2]++
		default:
			t.Fatalf("unexpected title %q", topic.Title)
		}
	}
	assert.Equal(t, 2, pageCounts[1])
	assert.Equal(t, 1, pageCounts[2])
}

func TestIngestPagesSkipsEmptyPages(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	p, err := NewPipeline(emb, 10, 4, zerolog.Nop())
	require.NoError(t, err)

	pages := []parser.Page{
		{Number: 1, Text: "   \n\t "},
		{Number: 2, Text: "actual content here"},
		{Number: 3, Text: ""},
	}
	result, err := p.IngestPages(context.Background(), "doc.pdf", pages)
	require.NoError(t, err)
	require.Len(t, result.Topics, 1)
	assert.Equal(t, "Page 2 - doc.pdf", result.Topics[0].Title)
}

func TestIngestPagesAllEmpty(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	p, err := NewPipeline(emb, 10, 4, zerolog.Nop())
	require.NoError(t, err)

	result, err := p.IngestPages(context.Background(), "blank.pdf", []parser.Page{{Number: 1, Text: " "}})
	require.NoError(t, err)
	assert.Empty(t, result.Topics)
	assert.Empty(t, result.Failures)
	assert.Zero(t, emb.calls.Load())
}

func TestIngestPagesBoundedConcurrency(t *testing.T) {
	const limit = 8
	emb := &fakeEmbedder{dim: 8, delay: 5 * time.Millisecond}
	p, err := NewPipeline(emb, 2, limit, zerolog.Nop())
	require.NoError(t, err)

	// 100 chunks from one page
	pages := []parser.Page{{Number: 1, Text: words(200)}}
	result, err := p.IngestPages(context.Background(), "big.pdf", pages)
	require.NoError(t, err)
	assert.Len(t, result.Topics, 100)
	assert.LessOrEqual(t, emb.maxInFlight.Load(), int64(limit))
}

func TestIngestPagesIsolatesChunkFailures(t *testing.T) {
	// the middle chunk contains the poison token
	emb := &fakeEmbedder{dim: 8, failSubstr: "poison"}
	p, err := NewPipeline(emb, 2, 4, zerolog.Nop())
	require.NoError(t, err)

	pages := []parser.Page{{Number: 1, Text: "aa bb poison cc dd ee"}}
	result, err := p.IngestPages(context.Background(), "doc.pdf", pages)
	require.NoError(t, err)

	assert.Len(t, result.Topics, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].PageNumber)
	assert.EqualError(t, result.Failures[0].Err, "embedding unavailable")
}

func TestIngestReadsPlainTextDocuments(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/notes.txt"
	require.NoError(t, writeFile(path, words(25)))

	emb := &fakeEmbedder{dim: 8}
	p, err := NewPipeline(emb, 10, 4, zerolog.Nop())
	require.NoError(t, err)

	result, err := p.Ingest(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, result.Topics, 3)
	assert.Equal(t, "notes.txt", result.Topics[0].FileName)
}

func TestIngestUnsupportedFormat(t *testing.T) {
	emb := &fakeEmbedder{dim: 8}
	p, err := NewPipeline(emb, 10, 4, zerolog.Nop())
	require.NoError(t, err)

	_, err = p.Ingest(context.Background(), "movie.mp4")
	assert.Error(t, err)
}

func TestIsIngested(t *testing.T) {
	ctx := context.Background()
	store := memorystore.NewStore()

	vec := make([]float32, 8)
	vec[0] = 1
	require.NoError(t, store.Upsert(ctx, models.Topic{
		Key:       "k1",
		Title:     "Page 1 - foo.pdf",
		FileName:  "foo.pdf",
		Embedding: vec,
	}))

	seen, err := IsIngested(ctx, store, 8, "foo.pdf")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = IsIngested(ctx, store, 8, "bar.pdf")
	require.NoError(t, err)
	assert.False(t, seen)
}
