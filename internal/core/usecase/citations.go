package usecase

import (
	"regexp"
	"strconv"

	"github.com/daveymason/cy-bee/internal/core/domain"
)

var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// extractCitations keeps only the retrieved rows whose bracketed marker
// appears in the answer, in retrieval rank order. Markers outside the
// retrieved range are ignored rather than treated as errors.
func extractCitations(answer string, retrieved []domain.Chunk) []domain.Citation {
	if len(retrieved) == 0 {
		return nil
	}

	cited := make(map[int]bool)
	for _, match := range citationMarker.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > len(retrieved) {
			continue
		}
		cited[n] = true
	}

	citations := make([]domain.Citation, 0, len(cited))
	for i, chunk := range retrieved {
		if cited[i+1] {
			citations = append(citations, chunk.Citation())
		}
	}
	return citations
}
