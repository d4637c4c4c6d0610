package service

import (
	"context"

	"github.com/vaporlogic/manualqa/internal/domain"
)

// SearchIndex is the slice of the embedding index the retriever needs.
type SearchIndex interface {
	Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error)
}

// Retriever converts a question into scored, source-attributed results. It
// adds no ranking of its own: results keep the index's similarity order, and
// ties between equal scores break on index iteration order.
type Retriever struct {
	index    SearchIndex
	defaultK int
}

func NewRetriever(index SearchIndex, defaultK int) *Retriever {
	if defaultK <= 0 {
		defaultK = 5
	}
	return &Retriever{index: index, defaultK: defaultK}
}

// Retrieve returns the top-k chunks for the query. k <= 0 uses the default.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		k = r.defaultK
	}
	return r.index.Search(ctx, query, k)
}
