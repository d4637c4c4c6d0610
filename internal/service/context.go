package service

import (
	"fmt"
	"strings"

	"github.com/vaporlogic/manualqa/internal/domain"
)

// FormatContext renders retrieved chunks as numbered, source-tagged blocks in
// retrieval order. Sources are not deduplicated: a manual retrieved through
// several chunks appears once per chunk.
func FormatContext(results []domain.RetrievalResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		source := r.Metadata.Source
		if source == "" {
			source = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("[Document %d - Source: %s]\n%s", i+1, source, r.Content))
	}
	return strings.Join(parts, "\n\n")
}
