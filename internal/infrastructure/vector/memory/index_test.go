package memory

import (
	"context"
	"math"
	"testing"

	"github.com/daveymason/cy-bee/internal/core/domain"
)

func embedded(id string, vector ...float32) domain.Chunk {
	return domain.Chunk{ID: id, Text: id, Embedding: vector}
}

func buildIndex(t *testing.T, chunks ...domain.Chunk) *Index {
	t.Helper()
	idx, err := NewBuilder().Build(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return idx.(*Index)
}

func TestSearchOrdersByCosineSimilarity(t *testing.T) {
	idx := buildIndex(t,
		embedded("sideways", 0, 1),
		embedded("close", 0.7, 0.7),
		embedded("exact", 1, 0),
	)

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "exact" || hits[1].ChunkID != "close" || hits[2].ChunkID != "sideways" {
		t.Fatalf("unexpected order: %v", hits)
	}
	if math.Abs(hits[0].Score-1.0) > 1e-9 {
		t.Fatalf("expected self-similarity 1.0, got %v", hits[0].Score)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatalf("expected non-increasing scores, got %v", hits)
		}
	}
}

func TestSearchClampsKToCorpusSize(t *testing.T) {
	idx := buildIndex(t, embedded("a", 1, 0), embedded("b", 0, 1))

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected k clamped to 2, got %d", len(hits))
	}

	hits, err = idx.Search(context.Background(), []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != "a" {
		t.Fatalf("expected only the best hit, got %v", hits)
	}
}

func TestSearchBreaksTiesByInsertionOrder(t *testing.T) {
	idx := buildIndex(t,
		embedded("first", 1, 0),
		embedded("second", 1, 0),
		embedded("third", 1, 0),
	)

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if hits[0].ChunkID != "first" || hits[1].ChunkID != "second" || hits[2].ChunkID != "third" {
		t.Fatalf("expected insertion order for ties, got %v", hits)
	}
}

func TestSearchZeroNormScoresZero(t *testing.T) {
	idx := buildIndex(t, embedded("zero", 0, 0), embedded("unit", 1, 0))

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if hits[0].ChunkID != "unit" {
		t.Fatalf("expected the non-zero vector first, got %v", hits)
	}
	if hits[1].Score != 0 {
		t.Fatalf("expected zero-norm corpus vector to score 0, got %v", hits[1].Score)
	}

	hits, err = idx.Search(context.Background(), []float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, hit := range hits {
		if hit.Score != 0 {
			t.Fatalf("expected zero-norm query to score 0 everywhere, got %v", hits)
		}
	}
}

func TestSearchRejectsDimensionMismatch(t *testing.T) {
	idx := buildIndex(t, embedded("a", 1, 0))

	_, err := idx.Search(context.Background(), []float32{1, 0, 0}, 1)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuildRejectsMixedDimensions(t *testing.T) {
	_, err := NewBuilder().Build(context.Background(), []domain.Chunk{
		embedded("a", 1, 0),
		embedded("b", 1, 0, 0),
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuildRejectsChunkWithoutEmbedding(t *testing.T) {
	_, err := NewBuilder().Build(context.Background(), []domain.Chunk{{ID: "bare", Text: "no vector"}})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEmptyIndexReturnsNoHits(t *testing.T) {
	idx := buildIndex(t)

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits from empty index, got %v", hits)
	}
	if idx.Size() != 0 || idx.Dimension() != 0 {
		t.Fatalf("expected empty index, got size %d dimension %d", idx.Size(), idx.Dimension())
	}
}
