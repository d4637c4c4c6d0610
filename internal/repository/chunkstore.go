// Package repository persists collection chunks and embeddings in Postgres
// with the pgvector extension.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/vaporlogic/manualqa/internal/domain"
	"github.com/vaporlogic/manualqa/internal/index"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ChunkStore implements index.Store on a collection_chunks table. Rows are
// keyed by (collection, chunk_key), so one database serves many collections.
type ChunkStore struct {
	db         dbtx
	collection string
	dimensions int
}

func NewChunkStore(pool *pgxpool.Pool, collection string, dimensions int) *ChunkStore {
	return &ChunkStore{db: pool, collection: collection, dimensions: dimensions}
}

func NewChunkStoreWithTx(tx pgx.Tx, collection string, dimensions int) *ChunkStore {
	return &ChunkStore{db: tx, collection: collection, dimensions: dimensions}
}

var _ index.Store = (*ChunkStore)(nil)

// Init creates the vector extension, table and ANN index if they do not
// exist. Safe to call repeatedly; normal deployments run the same DDL through
// migrations and Init becomes a no-op.
func (s *ChunkStore) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS collection_chunks (
			id BIGSERIAL PRIMARY KEY,
			collection TEXT NOT NULL,
			chunk_key TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (collection, chunk_key)
		)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS idx_collection_chunks_embedding
			ON collection_chunks USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_collection_chunks_collection
			ON collection_chunks (collection)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create collection schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts entries, overwriting content, metadata and embedding for
// keys that already exist in the collection.
func (s *ChunkStore) Upsert(ctx context.Context, entries []index.Entry) error {
	now := time.Now().UTC()
	for _, e := range entries {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode chunk metadata: %w", err)
		}
		_, err = s.db.Exec(ctx,
			`INSERT INTO collection_chunks
				(collection, chunk_key, content, metadata, embedding, created_at, updated_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $6)
			 ON CONFLICT (collection, chunk_key) DO UPDATE SET
				content = EXCLUDED.content,
				metadata = EXCLUDED.metadata,
				embedding = EXCLUDED.embedding,
				updated_at = EXCLUDED.updated_at`,
			s.collection,
			e.Key,
			e.Content,
			metadata,
			pgvector.NewVector(e.Embedding),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", e.Key, err)
		}
	}
	return nil
}

// Search returns the k nearest entries by cosine distance, scored as
// 1 - distance so that higher is more similar.
func (s *ChunkStore) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return []domain.RetrievalResult{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT content, metadata, 1 - (embedding <=> $1) AS score
		 FROM collection_chunks
		 WHERE collection = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(vector), s.collection, k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection: %w", err)
	}
	defer rows.Close()

	results := make([]domain.RetrievalResult, 0, k)
	for rows.Next() {
		var r domain.RetrievalResult
		var metadata []byte
		var score float64
		if err := rows.Scan(&r.Content, &metadata, &score); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode chunk metadata: %w", err)
		}
		r.Score = float32(score)
		results = append(results, r)
	}

	return results, rows.Err()
}

// Stats counts stored chunks and distinct sources in the collection.
func (s *ChunkStore) Stats(ctx context.Context) (index.Stats, error) {
	var stats index.Stats
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT metadata->>'source')
		 FROM collection_chunks
		 WHERE collection = $1`,
		s.collection,
	).Scan(&stats.Chunks, &stats.Sources)
	if err != nil {
		return index.Stats{}, fmt.Errorf("failed to read collection stats: %w", err)
	}
	return stats, nil
}

// Drop deletes every chunk in the collection. The table itself is kept.
func (s *ChunkStore) Drop(ctx context.Context) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM collection_chunks WHERE collection = $1`, s.collection)
	if err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}
