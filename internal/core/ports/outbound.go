package ports

import (
	"context"

	"github.com/daveymason/cy-bee/internal/core/domain"
)

// CorpusParser turns a folder of tabular files into row-level chunks.
type CorpusParser interface {
	ParseFolder(ctx context.Context, folder string) (domain.ParsedCorpus, error)
}

// Embedder builds vectors for chunk batches and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Completer produces a single non-streaming chat completion.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// ModelCatalog reports reachability of the inference service and its installed models.
type ModelCatalog interface {
	Ping(ctx context.Context) error
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)
}

// VectorIndex answers similarity searches over one ingested corpus.
// Implementations are read-only after construction and safe for concurrent readers.
type VectorIndex interface {
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error)
	Size() int
	Dimension() int
}

// IndexBuilder constructs a VectorIndex from embedded chunks.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []domain.Chunk) (VectorIndex, error)
}
