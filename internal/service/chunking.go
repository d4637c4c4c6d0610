package service

import (
	"github.com/vaporlogic/manualqa/internal/domain"
)

// boundaryThreshold is the fraction of a window after which a sentence or
// line boundary is preferred over a hard cut.
const boundaryThreshold = 0.8

// ChunkText splits text into overlapping segments of at most chunkSize runes.
//
// Short input (len <= chunkSize) is returned as a single chunk. Otherwise the
// scan moves forward in windows of chunkSize runes; at each window boundary
// the chunk is cut at the last period past 80% of the window, else at the
// last newline past 80%, else at the raw boundary. A period always wins over
// a newline when both qualify. The next window starts at end-overlap so
// consecutive chunks share an overlap-sized region.
//
// overlap must be smaller than chunkSize; the scan always advances by at
// least one rune per iteration so the loop terminates on any input.
func ChunkText(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, domain.ErrInvalidChunkParams
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}, nil
	}

	chunks := make([]string, 0, 1+(len(runes)-overlap)/(chunkSize-overlap))
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		window := runes[start:end]
		threshold := boundaryThreshold * float64(len(window))
		if cut := lastIndexRune(window, '.'); float64(cut) > threshold {
			end = start + cut + 1
		} else if cut := lastIndexRune(window, '\n'); float64(cut) > threshold {
			end = start + cut + 1
		}

		chunks = append(chunks, string(runes[start:end]))

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks, nil
}

func lastIndexRune(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}
