//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaporlogic/manualqa/internal/domain"
	"github.com/vaporlogic/manualqa/internal/index"
	"github.com/vaporlogic/manualqa/internal/testutil"
)

const testDimensions = 1536

func vectorWith(lead float32) []float32 {
	v := make([]float32, testDimensions)
	v[0] = lead
	v[1] = 1
	return v
}

func entryFor(source string, chunkID int, lead float32) index.Entry {
	chunk := domain.Chunk{
		Content: "chunk content",
		Metadata: domain.ChunkMetadata{
			Source:      source,
			FileName:    source,
			FileType:    ".pdf",
			ChunkID:     chunkID,
			TotalChunks: 3,
		},
	}
	return index.Entry{
		Key:       chunk.Key(),
		Content:   chunk.Content,
		Metadata:  chunk.Metadata,
		Embedding: vectorWith(lead),
	}
}

func TestChunkStore_Integration(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewChunkStore(pool, "documents", testDimensions)
	require.NoError(t, store.Init(ctx))

	t.Run("upsert and search ordered by similarity", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		entries := []index.Entry{
			entryFor("manual.pdf", 0, 1.0),
			entryFor("manual.pdf", 1, 0.5),
			entryFor("spec.docx", 0, -1.0),
		}
		require.NoError(t, store.Upsert(ctx, entries))

		results, err := store.Search(ctx, vectorWith(1.0), 3)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "manual.pdf", results[0].Metadata.Source)
		assert.Equal(t, 0, results[0].Metadata.ChunkID)
		assert.InDelta(t, 1.0, float64(results[0].Score), 1e-4)
		assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
		assert.GreaterOrEqual(t, results[1].Score, results[2].Score)
	})

	t.Run("duplicate key overwrites", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		first := entryFor("manual.pdf", 0, 1.0)
		require.NoError(t, store.Upsert(ctx, []index.Entry{first}))

		second := first
		second.Content = "revised content"
		require.NoError(t, store.Upsert(ctx, []index.Entry{second}))

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Chunks)

		results, err := store.Search(ctx, vectorWith(1.0), 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "revised content", results[0].Content)
	})

	t.Run("stats counts distinct sources", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		entries := []index.Entry{
			entryFor("manual.pdf", 0, 1.0),
			entryFor("manual.pdf", 1, 0.5),
			entryFor("spec.docx", 0, 0.2),
		}
		require.NoError(t, store.Upsert(ctx, entries))

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Chunks)
		assert.Equal(t, 2, stats.Sources)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		other := NewChunkStore(pool, "other", testDimensions)
		require.NoError(t, store.Upsert(ctx, []index.Entry{entryFor("manual.pdf", 0, 1.0)}))
		require.NoError(t, other.Upsert(ctx, []index.Entry{entryFor("other.pdf", 0, 1.0)}))

		results, err := store.Search(ctx, vectorWith(1.0), 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "manual.pdf", results[0].Metadata.Source)

		require.NoError(t, store.Drop(ctx))
		stats, err := other.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Chunks)
	})

	t.Run("empty collection searches empty", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		results, err := store.Search(ctx, vectorWith(1.0), 5)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
