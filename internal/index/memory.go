package index

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/vaporlogic/manualqa/internal/domain"
)

// MemoryStore is a brute-force cosine similarity store. It backs unit tests
// and the "memory" store mode; nothing survives process exit.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string]Entry)
	}
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		return domain.ErrIndexNotInitialized
	}
	for _, e := range entries {
		s.entries[e.Key] = e
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entries == nil {
		return nil, domain.ErrIndexNotInitialized
	}
	if k <= 0 {
		return []domain.RetrievalResult{}, nil
	}

	results := make([]domain.RetrievalResult, 0, len(s.entries))
	for _, e := range s.entries {
		results = append(results, domain.RetrievalResult{
			Content:  e.Content,
			Metadata: e.Metadata,
			Score:    cosineSimilarity(vector, e.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entries == nil {
		return Stats{}, domain.ErrIndexNotInitialized
	}
	sources := make(map[string]struct{})
	for _, e := range s.entries {
		sources[e.Metadata.Source] = struct{}{}
	}
	return Stats{Chunks: len(s.entries), Sources: len(sources)}, nil
}

func (s *MemoryStore) Drop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// cosineSimilarity equals 1 - cosine distance, matching the score the
// pgvector store computes in SQL. Zero vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
