package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text", cfg.EmbedLLM.Model)
	assert.Equal(t, "phi3:mini", cfg.ChatLLM.Model)
	assert.Equal(t, "chromem", cfg.Store.Type)
	assert.Equal(t, "milestone_topics", cfg.Store.Collection)
	assert.Equal(t, 5, cfg.RAG.SearchLimit)
	assert.InDelta(t, 0.50, cfg.RAG.ScoreThreshold, 1e-6)
	assert.Equal(t, 700, cfg.RAG.ContextChars)
	assert.Equal(t, 2500, cfg.RAG.MemoryChars)
	assert.Equal(t, 5, cfg.RAG.MemoryTurns)
	assert.Equal(t, 800, cfg.RAG.ChunkWords)
	assert.Equal(t, 40, cfg.RAG.EmbedConcurrency)
	assert.Equal(t, 768, cfg.RAG.Dimension)
	assert.Equal(t, 250, cfg.RAG.AnswerTimeoutSecs)
	assert.Equal(t, 10, cfg.RAG.WarmupTimeoutSecs)
}

func TestLoadConfigPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  type: qdrant\nrag:\n  search_limit: 3\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "qdrant", cfg.Store.Type)
	assert.Equal(t, 3, cfg.RAG.SearchLimit)
	// untouched fields fall back to defaults
	assert.Equal(t, 800, cfg.RAG.ChunkWords)
	assert.Equal(t, "milestone_topics", cfg.Store.Collection)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [not: valid"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("QDRANT_API_KEY", "secret-key")
	t.Setenv("POSTGRES_DSN", "postgres://db:5432/rag")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	require.NotNil(t, cfg.Store.Qdrant)
	assert.Equal(t, "secret-key", cfg.Store.Qdrant.APIKey)
	require.NotNil(t, cfg.Store.Postgres)
	assert.Equal(t, "postgres://db:5432/rag", cfg.Store.Postgres.DSN)
}
