package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/daveymason/cy-bee/internal/core/domain"
	"github.com/daveymason/cy-bee/internal/core/ports"
	"github.com/daveymason/cy-bee/internal/core/state"
)

const (
	defaultEmbedBatchSize = 32
	defaultEmbedWorkers   = 4
)

type IngestCorpusUseCase struct {
	parser   ports.CorpusParser
	embedder ports.Embedder
	catalog  ports.ModelCatalog
	builder  ports.IndexBuilder
	engine   *state.Engine

	batchSize int
	workers   int
}

func NewIngestCorpusUseCase(
	parser ports.CorpusParser,
	embedder ports.Embedder,
	catalog ports.ModelCatalog,
	builder ports.IndexBuilder,
	engine *state.Engine,
	batchSize, workers int,
) *IngestCorpusUseCase {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	if workers <= 0 {
		workers = defaultEmbedWorkers
	}
	return &IngestCorpusUseCase{
		parser:    parser,
		embedder:  embedder,
		catalog:   catalog,
		builder:   builder,
		engine:    engine,
		batchSize: batchSize,
		workers:   workers,
	}
}

// Ingest parses every tabular file under folder, embeds the rows and swaps
// the resulting index into the engine. A prior index keeps serving queries
// until the swap; on failure it stays installed untouched.
func (uc *IngestCorpusUseCase) Ingest(ctx context.Context, folder string) (domain.IngestReport, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return domain.IngestReport{}, domain.WrapError(domain.ErrInvalidInput, "ingest", errors.New("folder path is empty"))
	}

	if err := uc.engine.BeginIngest(); err != nil {
		return domain.IngestReport{}, fmt.Errorf("ingest: %w", err)
	}

	report, err := uc.runPipeline(ctx, folder)
	if err != nil {
		uc.engine.FailIngest()
		return domain.IngestReport{}, err
	}
	return report, nil
}

func (uc *IngestCorpusUseCase) runPipeline(ctx context.Context, folder string) (domain.IngestReport, error) {
	parsed, err := uc.parser.ParseFolder(ctx, folder)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("parse folder: %w", err)
	}

	embedded, embedWarnings, err := uc.embedCorpus(ctx, parsed.Chunks)
	if err != nil {
		return domain.IngestReport{}, err
	}

	index, err := uc.builder.Build(ctx, embedded)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("build vector index: %w", err)
	}

	corpus := domain.NewCorpusIndex(embedded, index.Dimension())
	uc.engine.CompleteIngest(corpus, index, folder)

	dropped := len(parsed.Chunks) - len(embedded)
	report := domain.IngestReport{
		Success:           true,
		FilesProcessed:    parsed.FilesProcessed,
		FilesFailed:       parsed.FilesFailed,
		DocumentsIngested: len(embedded),
		RowsDropped:       dropped,
		Message:           ingestMessage(len(embedded), parsed.FilesProcessed, dropped, parsed.FilesFailed),
		Warnings:          append(parsed.Warnings, embedWarnings...),
	}

	slog.Info("ingestion_complete",
		"folder", folder,
		"files_processed", report.FilesProcessed,
		"files_failed", report.FilesFailed,
		"rows_indexed", report.DocumentsIngested,
		"rows_dropped", report.RowsDropped,
	)
	return report, nil
}

// embedCorpus embeds chunks in fixed-size batches through a bounded worker
// pool. One failing batch drops only its own rows; the service being down
// before any batch is sent aborts the whole run instead.
func (uc *IngestCorpusUseCase) embedCorpus(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, []string, error) {
	if len(chunks) == 0 {
		return nil, nil, nil
	}

	if err := uc.preflight(ctx); err != nil {
		return nil, nil, err
	}

	batches := splitBatches(chunks, uc.batchSize)
	results := make([][]domain.Chunk, len(batches))
	failures := make([]string, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, batch := range batches {
		g.Go(func() error {
			embedded, err := uc.embedBatch(gctx, batch)
			if err != nil {
				failures[i] = fmt.Sprintf("embedding batch of %d rows (starting at %s, row %d): %v",
					len(batch), batch[0].SourceFile, batch[0].RowIndex, err)
				slog.Warn("embedding_batch_failed", "rows", len(batch), "error", err)
				return nil
			}
			results[i] = embedded
			return nil
		})
	}
	// Workers report failures through their slot, never through the group,
	// so Wait only acts as a barrier.
	_ = g.Wait()

	embedded := make([]domain.Chunk, 0, len(chunks))
	for _, batch := range results {
		embedded = append(embedded, batch...)
	}
	var warnings []string
	for _, failure := range failures {
		if failure != "" {
			warnings = append(warnings, failure)
		}
	}
	return embedded, warnings, nil
}

// preflight confirms the inference service answers at all before any
// embedding is attempted, so a dead service fails the run up front.
func (uc *IngestCorpusUseCase) preflight(ctx context.Context) error {
	err := uc.catalog.Ping(ctx)
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrServiceUnavailable) {
		return err
	}
	return domain.WrapError(domain.ErrServiceUnavailable, "ingest preflight", err)
}

func (uc *IngestCorpusUseCase) embedBatch(ctx context.Context, batch []domain.Chunk) ([]domain.Chunk, error) {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, domain.WrapError(
			domain.ErrEmbeddingFailure,
			"embed batch",
			fmt.Errorf("vectors/rows mismatch: %d/%d", len(vectors), len(batch)),
		)
	}

	embedded := make([]domain.Chunk, len(batch))
	for i := range batch {
		embedded[i] = batch[i]
		embedded[i].Embedding = vectors[i]
	}
	return embedded, nil
}

func splitBatches(chunks []domain.Chunk, size int) [][]domain.Chunk {
	batches := make([][]domain.Chunk, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}

func ingestMessage(rows, files, droppedRows, failedFiles int) string {
	if rows == 0 && files == 0 && failedFiles == 0 {
		return "No tabular data files found in the folder."
	}

	var issues []string
	if droppedRows > 0 {
		issues = append(issues, fmt.Sprintf("%d rows dropped after embedding failures", droppedRows))
	}
	if failedFiles > 0 {
		issues = append(issues, fmt.Sprintf("%d file(s) skipped as unreadable", failedFiles))
	}
	if len(issues) > 0 {
		return fmt.Sprintf("Indexed %d rows from %d file(s); %s.", rows, files, strings.Join(issues, "; "))
	}
	return fmt.Sprintf("Successfully indexed %d rows from %d file(s).", rows, files)
}
