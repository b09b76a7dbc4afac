package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLMConfig points at one model served by an Ollama-compatible endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type QdrantConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// StoreConfig selects and configures the vector index backend.
type StoreConfig struct {
	Type       string          `yaml:"type"`
	Collection string          `yaml:"collection"`
	Path       string          `yaml:"path"`
	Qdrant     *QdrantConfig   `yaml:"qdrant,omitempty"`
	Postgres   *PostgresConfig `yaml:"postgres,omitempty"`
}

// RAGConfig carries the retrieval, chunking and generation budgets.
type RAGConfig struct {
	SearchLimit       int     `yaml:"search_limit"`
	ScoreThreshold    float32 `yaml:"score_threshold"`
	ContextChars      int     `yaml:"context_chars"`
	MemoryChars       int     `yaml:"memory_chars"`
	MemoryTurns       int     `yaml:"memory_turns"`
	ChunkWords        int     `yaml:"chunk_words"`
	EmbedConcurrency  int     `yaml:"embed_concurrency"`
	Dimension         int     `yaml:"dimension"`
	AnswerTimeoutSecs int     `yaml:"answer_timeout_secs"`
	WarmupTimeoutSecs int     `yaml:"warmup_timeout_secs"`
}

type Config struct {
	EmbedLLM LLMConfig   `yaml:"embed_llm"`
	ChatLLM  LLMConfig   `yaml:"chat_llm"`
	Store    StoreConfig `yaml:"store"`
	RAG      RAGConfig   `yaml:"rag"`
}

// LoadConfig reads a yaml config from path. A missing file yields the
// defaults. A best-effort .env load runs first so secrets can come
// from the environment instead of the config file.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		EmbedLLM: LLMConfig{BaseURL: "http://localhost:11434", Model: "nomic-embed-text"},
		ChatLLM:  LLMConfig{BaseURL: "http://localhost:11434", Model: "phi3:mini"},
		Store: StoreConfig{
			Type:       "chromem",
			Collection: "milestone_topics",
			Path:       "./chromemdb",
		},
		RAG: RAGConfig{
			SearchLimit:       5,
			ScoreThreshold:    0.50,
			ContextChars:      700,
			MemoryChars:       2500,
			MemoryTurns:       5,
			ChunkWords:        800,
			EmbedConcurrency:  40,
			Dimension:         768,
			AnswerTimeoutSecs: 250,
			WarmupTimeoutSecs: 10,
		},
	}
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = def.EmbedLLM.BaseURL
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = def.EmbedLLM.Model
	}
	if cfg.ChatLLM.BaseURL == "" {
		cfg.ChatLLM.BaseURL = def.ChatLLM.BaseURL
	}
	if cfg.ChatLLM.Model == "" {
		cfg.ChatLLM.Model = def.ChatLLM.Model
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = def.Store.Type
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = def.Store.Collection
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = def.Store.Path
	}
	if cfg.RAG.SearchLimit == 0 {
		cfg.RAG.SearchLimit = def.RAG.SearchLimit
	}
	if cfg.RAG.ScoreThreshold == 0 {
		cfg.RAG.ScoreThreshold = def.RAG.ScoreThreshold
	}
	if cfg.RAG.ContextChars == 0 {
		cfg.RAG.ContextChars = def.RAG.ContextChars
	}
	if cfg.RAG.MemoryChars == 0 {
		cfg.RAG.MemoryChars = def.RAG.MemoryChars
	}
	if cfg.RAG.MemoryTurns == 0 {
		cfg.RAG.MemoryTurns = def.RAG.MemoryTurns
	}
	if cfg.RAG.ChunkWords == 0 {
		cfg.RAG.ChunkWords = def.RAG.ChunkWords
	}
	if cfg.RAG.EmbedConcurrency == 0 {
		cfg.RAG.EmbedConcurrency = def.RAG.EmbedConcurrency
	}
	if cfg.RAG.Dimension == 0 {
		cfg.RAG.Dimension = def.RAG.Dimension
	}
	if cfg.RAG.AnswerTimeoutSecs == 0 {
		cfg.RAG.AnswerTimeoutSecs = def.RAG.AnswerTimeoutSecs
	}
	if cfg.RAG.WarmupTimeoutSecs == 0 {
		cfg.RAG.WarmupTimeoutSecs = def.RAG.WarmupTimeoutSecs
	}
}

// secrets never have to live in the config file
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		if cfg.Store.Qdrant == nil {
			cfg.Store.Qdrant = &QdrantConfig{}
		}
		cfg.Store.Qdrant.APIKey = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		if cfg.Store.Postgres == nil {
			cfg.Store.Postgres = &PostgresConfig{}
		}
		cfg.Store.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		if cfg.Store.Postgres == nil {
			cfg.Store.Postgres = &PostgresConfig{}
		}
		cfg.Store.Postgres.Password = v
	}
}
