package index

import (
	"context"
	"testing"

	"github.com/vaporlogic/manualqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RequiresInit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Upsert(ctx, []Entry{{Key: "k"}})
	assert.ErrorIs(t, err, domain.ErrIndexNotInitialized)

	_, err = s.Search(ctx, []float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrIndexNotInitialized)
}

func TestMemoryStore_SearchOrdersByScore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Init(ctx))

	entries := []Entry{
		{Key: "far", Content: "far", Metadata: domain.ChunkMetadata{Source: "far.txt"}, Embedding: []float32{0, 1, 0}},
		{Key: "near", Content: "near", Metadata: domain.ChunkMetadata{Source: "near.txt"}, Embedding: []float32{1, 0.1, 0}},
		{Key: "exact", Content: "exact", Metadata: domain.ChunkMetadata{Source: "exact.txt"}, Embedding: []float32{1, 0, 0}},
	}
	require.NoError(t, s.Upsert(ctx, entries))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].Content)
	assert.Equal(t, "near", results[1].Content)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryStore_StatsCountsDistinctSources(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Init(ctx))

	entries := []Entry{
		{Key: "m_0", Metadata: domain.ChunkMetadata{Source: "manual.pdf"}, Embedding: []float32{1}},
		{Key: "m_1", Metadata: domain.ChunkMetadata{Source: "manual.pdf"}, Embedding: []float32{1}},
		{Key: "s_0", Metadata: domain.ChunkMetadata{Source: "spec.docx"}, Embedding: []float32{1}},
	}
	require.NoError(t, s.Upsert(ctx, entries))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Chunks)
	assert.Equal(t, 2, stats.Sources)
}

func TestMemoryStore_DropClearsEverything(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Upsert(ctx, []Entry{{Key: "k", Embedding: []float32{1}}}))

	require.NoError(t, s.Drop(ctx))

	// Dropped store is uninitialized until Init is called again.
	_, err := s.Search(ctx, []float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrIndexNotInitialized)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
