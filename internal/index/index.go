// Package index implements the embedding index: a named persistent collection
// of chunk text, metadata and embedding vectors supporting cosine
// nearest-neighbor search.
package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/vaporlogic/manualqa/internal/domain"
)

// Embedder produces one fixed-dimension vector per input text. Embeddings are
// deterministic for identical input.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Entry is a stored collection row.
type Entry struct {
	Key       string
	Content   string
	Metadata  domain.ChunkMetadata
	Embedding []float32
}

// Stats describes the current collection content.
type Stats struct {
	Chunks  int
	Sources int
}

// Store persists entries for a single named collection and answers cosine
// similarity searches. Search results carry Score = 1 - cosine distance,
// ordered by descending score.
type Store interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalResult, error)
	Stats(ctx context.Context) (Stats, error)
	Drop(ctx context.Context) error
}

// VectorIndex composes an Embedder with a Store. Add and Search lazily
// initialize the collection when Initialize was not called explicitly.
type VectorIndex struct {
	embedder Embedder
	store    Store

	mu          sync.Mutex
	initialized bool
}

func NewVectorIndex(embedder Embedder, store Store) *VectorIndex {
	return &VectorIndex{embedder: embedder, store: store}
}

// Initialize idempotently opens or creates the collection.
func (ix *VectorIndex) Initialize(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.ensureLocked(ctx)
}

func (ix *VectorIndex) ensureLocked(ctx context.Context) error {
	if ix.initialized {
		return nil
	}
	if err := ix.store.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize collection: %w", err)
	}
	ix.initialized = true
	return nil
}

func (ix *VectorIndex) ensureInitialized(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.ensureLocked(ctx)
}

// Add embeds every chunk text in one batch and upserts the resulting entries.
// A duplicate ID overwrites the prior content and vector for that ID; when
// concurrent Add calls race on the same ID, the last write wins.
func (ix *VectorIndex) Add(ctx context.Context, chunks []domain.Chunk, ids []string) error {
	if len(chunks) != len(ids) {
		return domain.ErrLengthMismatch
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := ix.ensureInitialized(ctx); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = Entry{
			Key:       ids[i],
			Content:   c.Content,
			Metadata:  c.Metadata,
			Embedding: vectors[i],
		}
	}
	return ix.store.Upsert(ctx, entries)
}

// Search embeds the query text and returns the k closest entries, ordered by
// descending similarity. An empty collection yields an empty slice.
func (ix *VectorIndex) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	if err := ix.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}
	return ix.store.Search(ctx, vectors[0], k)
}

// Stats reports collection content counts.
func (ix *VectorIndex) Stats(ctx context.Context) (Stats, error) {
	if err := ix.ensureInitialized(ctx); err != nil {
		return Stats{}, err
	}
	return ix.store.Stats(ctx)
}

// DeleteCollection destroys all stored chunks and vectors. The index becomes
// uninitialized; subsequent operations re-initialize it.
func (ix *VectorIndex) DeleteCollection(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.ensureLocked(ctx); err != nil {
		return err
	}
	if err := ix.store.Drop(ctx); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	ix.initialized = false
	return nil
}
