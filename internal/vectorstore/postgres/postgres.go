// Package postgres backs the vector index with a pgvector table
// accessed through bun.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"milestone-rag/internal/models"
	"milestone-rag/internal/vectorstore"
)

type topicRow struct {
	bun.BaseModel `bun:"table:topics,alias:t"`

	Key      string `bun:"key,pk"`
	Title    string `bun:"title,notnull"`
	Content  string `bun:"content,notnull"`
	Source   string `bun:"source,notnull"`
	FileName string `bun:"file_name,notnull"`
	// stored as a pgvector literal; the embedding itself is never read back
	Embedding string  `bun:"embedding,notnull,type:vector(768)"`
	Score     float32 `bun:"score,scanonly"`
}

type Store struct {
	db *bun.DB
}

// NewStore connects to postgres through pgdriver. The table schema
// fixes the vector dimension at 768, matching the embedding model.
func NewStore(dsn, password string, debug bool) *Store {
	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if password != "" {
		opts = append(opts, pgdriver.WithPassword(password))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) EnsureCollection(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enabling pgvector: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*topicRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("creating topics table: %w", err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, topics ...models.Topic) error {
	if len(topics) == 0 {
		return nil
	}
	rows := make([]topicRow, len(topics))
	for i, t := range topics {
		rows[i] = topicRow{
			Key:       t.Key,
			Title:     t.Title,
			Content:   t.Content,
			Source:    t.Source,
			FileName:  t.FileName,
			Embedding: vectorLiteral(t.Embedding),
		}
	}
	// ingestion is additive-once; a key collision means the record is
	// already there
	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (key) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Match, error) {
	if limit <= 0 {
		limit = 5
	}
	literal := vectorLiteral(vector)

	var rows []topicRow
	q := s.db.NewSelect().
		Model(&rows).
		Column("key", "title", "content", "source", "file_name").
		ColumnExpr("1 - (embedding <=> ?::vector) AS score", literal).
		OrderExpr("embedding <=> ?::vector", literal).
		Limit(limit)
	for key, value := range filter {
		q = q.Where("? = ?", bun.Ident(key), value)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, vectorstore.Match{
			Topic: models.Topic{
				Key:      r.Key,
				Title:    r.Title,
				Content:  r.Content,
				Source:   r.Source,
				FileName: r.FileName,
			},
			Score: r.Score,
		})
	}
	return matches, nil
}

func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
