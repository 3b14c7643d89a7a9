package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/daveymason/cy-bee/internal/core/domain"
	"github.com/daveymason/cy-bee/internal/core/state"
	"github.com/daveymason/cy-bee/internal/infrastructure/vector/memory"
)

type parserFake struct {
	corpus domain.ParsedCorpus
	err    error
	folder string
}

func (f *parserFake) ParseFolder(_ context.Context, folder string) (domain.ParsedCorpus, error) {
	f.folder = folder
	if f.err != nil {
		return domain.ParsedCorpus{}, f.err
	}
	return f.corpus, nil
}

type catalogFake struct {
	pingErr error
	pings   atomic.Int32
	models  []domain.ModelInfo
	listErr error
}

func (f *catalogFake) Ping(context.Context) error {
	f.pings.Add(1)
	return f.pingErr
}

func (f *catalogFake) ListModels(context.Context) ([]domain.ModelInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.models, nil
}

// embedderFake returns a deterministic vector per text. Vectors can be
// pinned through the vectors map, a batch containing failWhen fails whole,
// and started/release let a test hold an ingestion mid-flight.
type embedderFake struct {
	mu      sync.Mutex
	batches [][]string
	queries []string

	vectors  map[string][]float32
	failWhen string
	queryErr error

	started     chan struct{}
	release     chan struct{}
	startedOnce sync.Once
}

func (f *embedderFake) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.started != nil {
		f.startedOnce.Do(func() { close(f.started) })
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.batches = append(f.batches, texts)
	f.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failWhen != "" && text == f.failWhen {
			return nil, domain.WrapError(domain.ErrEmbeddingFailure, "embed", errors.New("model overloaded"))
		}
		out[i] = f.vectorFor(text)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.queries = append(f.queries, text)
	f.mu.Unlock()

	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.vectorFor(text), nil
}

func (f *embedderFake) vectorFor(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{
		float32(sum%101) / 101,
		float32(sum%211) / 211,
		float32(sum%307) / 307,
	}
}

func (f *embedderFake) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func interviewChunks(file string, texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:         fmt.Sprintf("%s-row-%d", file, i+1),
			Text:       text,
			SourceFile: file,
			RowIndex:   i + 1,
		}
	}
	return chunks
}

func TestIngestBuildsQueryableIndex(t *testing.T) {
	parser := &parserFake{corpus: domain.ParsedCorpus{
		Chunks:         interviewChunks("interviews.csv", "likes onboarding", "dislikes pricing", "wants mobile"),
		FilesProcessed: 1,
	}}
	embedder := &embedderFake{}
	catalog := &catalogFake{}
	engine := state.NewEngine("llama3")
	uc := NewIngestCorpusUseCase(parser, embedder, catalog, memory.NewBuilder(), engine, 2, 2)

	report, err := uc.Ingest(context.Background(), "/data/interviews")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !report.Success {
		t.Fatalf("expected success, got %+v", report)
	}
	if report.FilesProcessed != 1 || report.DocumentsIngested != 3 || report.RowsDropped != 0 {
		t.Fatalf("unexpected report counts: %+v", report)
	}
	if report.Message != "Successfully indexed 3 rows from 1 file(s)." {
		t.Fatalf("unexpected message: %q", report.Message)
	}
	if parser.folder != "/data/interviews" {
		t.Fatalf("expected parser to scan /data/interviews, got %s", parser.folder)
	}
	if got := catalog.pings.Load(); got != 1 {
		t.Fatalf("expected one preflight ping, got %d", got)
	}
	if embedder.batchCount() != 2 {
		t.Fatalf("expected 2 batches with batch size 2, got %d", embedder.batchCount())
	}

	corpus, index, ok := engine.Installed()
	if !ok {
		t.Fatalf("expected index installed after ingestion")
	}
	if index.Size() != 3 || corpus.Size() != 3 {
		t.Fatalf("expected 3 indexed chunks, got index=%d corpus=%d", index.Size(), corpus.Size())
	}

	status := engine.Snapshot()
	if !status.Indexed || status.ChunkCount != 3 || status.DataFolder != "/data/interviews" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestIngestPartialBatchFailureKeepsRest(t *testing.T) {
	texts := make([]string, 50)
	for i := range texts {
		texts[i] = fmt.Sprintf("note %02d", i+1)
	}
	parser := &parserFake{corpus: domain.ParsedCorpus{
		Chunks:         interviewChunks("notes.csv", texts...),
		FilesProcessed: 2,
		FilesFailed:    1,
		Warnings:       []string{"broken.xlsx: zip: not a valid zip file"},
	}}
	embedder := &embedderFake{failWhen: "note 25"}
	engine := state.NewEngine("llama3")
	uc := NewIngestCorpusUseCase(parser, embedder, &catalogFake{}, memory.NewBuilder(), engine, 10, 3)

	report, err := uc.Ingest(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !report.Success {
		t.Fatalf("expected partial ingestion to succeed, got %+v", report)
	}
	if report.DocumentsIngested != 40 || report.RowsDropped != 10 {
		t.Fatalf("expected 40 indexed and 10 dropped, got %+v", report)
	}
	if len(report.Warnings) != 2 {
		t.Fatalf("expected parse warning plus embed warning, got %v", report.Warnings)
	}
	if !strings.Contains(report.Message, "10 rows dropped") || !strings.Contains(report.Message, "1 file(s) skipped") {
		t.Fatalf("expected message to mention partial failure, got %q", report.Message)
	}

	corpus, index, ok := engine.Installed()
	if !ok {
		t.Fatalf("expected index installed despite failed batch")
	}
	if index.Size() != 40 {
		t.Fatalf("expected 40 chunks in index, got %d", index.Size())
	}
	if _, found := corpus.ChunkByID("notes.csv-row-25"); found {
		t.Fatalf("expected dropped batch rows to stay out of the corpus")
	}
	if _, found := corpus.ChunkByID("notes.csv-row-5"); !found {
		t.Fatalf("expected surviving rows to stay in the corpus")
	}
}

func TestIngestRejectsConcurrentRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	embedder := &embedderFake{started: started, release: release}
	parser := &parserFake{corpus: domain.ParsedCorpus{
		Chunks:         interviewChunks("interviews.csv", "a", "b"),
		FilesProcessed: 1,
	}}
	engine := state.NewEngine("llama3")
	uc := NewIngestCorpusUseCase(parser, embedder, &catalogFake{}, memory.NewBuilder(), engine, 10, 1)

	firstDone := make(chan error, 1)
	go func() {
		_, err := uc.Ingest(context.Background(), "/data")
		firstDone <- err
	}()
	<-started

	_, err := uc.Ingest(context.Background(), "/data")
	if !domain.IsKind(err, domain.ErrAlreadyIndexing) {
		t.Fatalf("expected ErrAlreadyIndexing for concurrent run, got %v", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first ingestion failed: %v", err)
	}
	if _, _, ok := engine.Installed(); !ok {
		t.Fatalf("expected first ingestion to install its index")
	}
}

func TestIngestAbortsWhenServiceDown(t *testing.T) {
	parser := &parserFake{corpus: domain.ParsedCorpus{
		Chunks:         interviewChunks("interviews.csv", "a", "b"),
		FilesProcessed: 1,
	}}
	embedder := &embedderFake{}
	catalog := &catalogFake{pingErr: errors.New("connection refused")}
	engine := state.NewEngine("llama3")
	uc := NewIngestCorpusUseCase(parser, embedder, catalog, memory.NewBuilder(), engine, 10, 2)

	_, err := uc.Ingest(context.Background(), "/data")
	if !domain.IsKind(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if embedder.batchCount() != 0 {
		t.Fatalf("expected no embedding calls after failed preflight, got %d", embedder.batchCount())
	}

	status := engine.Snapshot()
	if status.Indexed || status.IngestionInProgress {
		t.Fatalf("expected engine back to empty after abort, got %+v", status)
	}
}

func TestIngestServiceDownKeepsPriorIndex(t *testing.T) {
	parser := &parserFake{corpus: domain.ParsedCorpus{
		Chunks:         interviewChunks("interviews.csv", "a", "b", "c"),
		FilesProcessed: 1,
	}}
	catalog := &catalogFake{}
	engine := state.NewEngine("llama3")
	uc := NewIngestCorpusUseCase(parser, &embedderFake{}, catalog, memory.NewBuilder(), engine, 10, 2)

	if _, err := uc.Ingest(context.Background(), "/data/a"); err != nil {
		t.Fatalf("first ingestion failed: %v", err)
	}

	catalog.pingErr = errors.New("connection refused")
	_, err := uc.Ingest(context.Background(), "/data/b")
	if !domain.IsKind(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}

	status := engine.Snapshot()
	if !status.Indexed || status.ChunkCount != 3 || status.DataFolder != "/data/a" {
		t.Fatalf("expected prior index to survive failed re-ingestion, got %+v", status)
	}
	if _, _, ok := engine.Installed(); !ok {
		t.Fatalf("expected prior index to keep serving queries")
	}
}

func TestIngestEmptyFolderSucceedsUnindexed(t *testing.T) {
	parser := &parserFake{corpus: domain.ParsedCorpus{}}
	catalog := &catalogFake{pingErr: errors.New("connection refused")}
	engine := state.NewEngine("llama3")
	uc := NewIngestCorpusUseCase(parser, &embedderFake{}, catalog, memory.NewBuilder(), engine, 10, 2)

	report, err := uc.Ingest(context.Background(), "/data/empty")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !report.Success || report.DocumentsIngested != 0 {
		t.Fatalf("expected empty success report, got %+v", report)
	}
	if report.Message != "No tabular data files found in the folder." {
		t.Fatalf("unexpected message: %q", report.Message)
	}
	// Nothing to embed, so the dead service is never consulted.
	if got := catalog.pings.Load(); got != 0 {
		t.Fatalf("expected no preflight for an empty corpus, got %d pings", got)
	}

	status := engine.Snapshot()
	if status.Indexed || status.ChunkCount != 0 {
		t.Fatalf("expected unindexed status, got %+v", status)
	}
	if _, _, ok := engine.Installed(); ok {
		t.Fatalf("expected no queryable index for an empty corpus")
	}
}

func TestReingestReplacesPriorCorpus(t *testing.T) {
	parser := &parserFake{corpus: domain.ParsedCorpus{
		Chunks:         interviewChunks("old.csv", "a", "b", "c"),
		FilesProcessed: 1,
	}}
	engine := state.NewEngine("llama3")
	uc := NewIngestCorpusUseCase(parser, &embedderFake{}, &catalogFake{}, memory.NewBuilder(), engine, 10, 2)

	if _, err := uc.Ingest(context.Background(), "/data/old"); err != nil {
		t.Fatalf("first ingestion failed: %v", err)
	}

	parser.corpus = domain.ParsedCorpus{
		Chunks:         interviewChunks("new.csv", "x", "y"),
		FilesProcessed: 1,
	}
	if _, err := uc.Ingest(context.Background(), "/data/new"); err != nil {
		t.Fatalf("re-ingestion failed: %v", err)
	}

	corpus, _, ok := engine.Installed()
	if !ok {
		t.Fatalf("expected re-ingested index installed")
	}
	if _, found := corpus.ChunkByID("old.csv-row-1"); found {
		t.Fatalf("expected old corpus fully replaced")
	}
	if _, found := corpus.ChunkByID("new.csv-row-2"); !found {
		t.Fatalf("expected new corpus installed")
	}

	status := engine.Snapshot()
	if status.ChunkCount != 2 || status.DataFolder != "/data/new" {
		t.Fatalf("unexpected status after re-ingestion: %+v", status)
	}
}

func TestIngestEmptyFolderPathRejected(t *testing.T) {
	engine := state.NewEngine("llama3")
	uc := NewIngestCorpusUseCase(&parserFake{}, &embedderFake{}, &catalogFake{}, memory.NewBuilder(), engine, 10, 2)

	_, err := uc.Ingest(context.Background(), "   ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestParserFailureReleasesIngestSlot(t *testing.T) {
	parser := &parserFake{err: domain.WrapError(domain.ErrInvalidInput, "scan folder", errors.New("no such directory"))}
	engine := state.NewEngine("llama3")
	uc := NewIngestCorpusUseCase(parser, &embedderFake{}, &catalogFake{}, memory.NewBuilder(), engine, 10, 2)

	if _, err := uc.Ingest(context.Background(), "/missing"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	parser.err = nil
	parser.corpus = domain.ParsedCorpus{
		Chunks:         interviewChunks("interviews.csv", "a"),
		FilesProcessed: 1,
	}
	if _, err := uc.Ingest(context.Background(), "/data"); err != nil {
		t.Fatalf("expected ingestion to run after earlier failure, got %v", err)
	}
}
