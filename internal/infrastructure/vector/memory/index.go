package memory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/daveymason/cy-bee/internal/core/domain"
	"github.com/daveymason/cy-bee/internal/core/ports"
)

type entry struct {
	chunkID string
	vector  []float32
	norm    float64
}

// Index is a read-only cosine-similarity index over one ingested corpus.
// Lookups are a linear scan; interview corpora are thousands of rows, not
// millions, so scan cost stays well under the inference round trips.
type Index struct {
	entries   []entry
	dimension int
}

type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

func (Builder) Build(_ context.Context, chunks []domain.Chunk) (ports.VectorIndex, error) {
	idx := &Index{entries: make([]entry, 0, len(chunks))}
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build index",
				fmt.Errorf("chunk %s has no embedding", chunk.ID))
		}
		if idx.dimension == 0 {
			idx.dimension = len(chunk.Embedding)
		}
		if len(chunk.Embedding) != idx.dimension {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build index",
				fmt.Errorf("chunk %s has dimension %d, index has %d", chunk.ID, len(chunk.Embedding), idx.dimension))
		}
		idx.entries = append(idx.entries, entry{
			chunkID: chunk.ID,
			vector:  chunk.Embedding,
			norm:    vectorNorm(chunk.Embedding),
		})
	}
	return idx, nil
}

func (idx *Index) Search(_ context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	if k <= 0 || len(idx.entries) == 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, domain.WrapError(domain.ErrInvalidInput, "vector search",
			fmt.Errorf("query dimension %d does not match index dimension %d", len(query), idx.dimension))
	}

	queryNorm := vectorNorm(query)
	hits := make([]domain.SearchHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		hits = append(hits, domain.SearchHit{
			ChunkID: e.chunkID,
			Score:   cosine(query, queryNorm, e.vector, e.norm),
		})
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (idx *Index) Size() int {
	return len(idx.entries)
}

func (idx *Index) Dimension() int {
	return idx.dimension
}

// cosine accumulates in float64; a zero-norm side scores 0 instead of
// dividing by zero.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
