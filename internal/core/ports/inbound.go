package ports

import (
	"context"

	"github.com/daveymason/cy-bee/internal/core/domain"
)

// CorpusIngestor is the inbound contract for indexing a folder of tabular data.
type CorpusIngestor interface {
	Ingest(ctx context.Context, folder string) (domain.IngestReport, error)
}

// QuestionAnswerer is the inbound contract for retrieval-grounded question answering.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string) (domain.Answer, error)
}

// ModelAdmin is the inbound contract for inference-service and model management.
type ModelAdmin interface {
	ServiceStatus(ctx context.Context) domain.ServiceStatus
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)
	SelectModel(ctx context.Context, name string) error
}

// StatusReader is the inbound read model for engine state. It takes no
// context because snapshots are served from memory.
type StatusReader interface {
	Snapshot() domain.EngineStatus
}
