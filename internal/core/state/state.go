package state

import (
	"sync"

	"github.com/daveymason/cy-bee/internal/core/domain"
	"github.com/daveymason/cy-bee/internal/core/ports"
)

// Engine owns the installed corpus and serializes its lifecycle:
// Empty -> Indexing -> Ready, with re-ingestion swapping the whole index.
// The lock covers only flag flips and the install swap; parsing and
// network calls happen outside it.
type Engine struct {
	mu sync.RWMutex

	corpus     *domain.CorpusIndex
	index      ports.VectorIndex
	dataFolder string
	model      string
	ingesting  bool
}

func NewEngine(defaultModel string) *Engine {
	return &Engine{model: defaultModel}
}

// BeginIngest claims the single ingestion slot. At most one ingestion runs
// at a time; there is no queueing.
func (e *Engine) BeginIngest() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ingesting {
		return domain.ErrAlreadyIndexing
	}
	e.ingesting = true
	return nil
}

// CompleteIngest atomically installs the new corpus. Readers see either the
// full prior index or the full new one, never a partial state.
func (e *Engine) CompleteIngest(corpus *domain.CorpusIndex, index ports.VectorIndex, folder string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.corpus = corpus
	e.index = index
	e.dataFolder = folder
	e.ingesting = false
}

// FailIngest releases the ingestion slot and keeps whatever was installed
// before: a prior Ready engine stays Ready, a fresh one stays Empty.
func (e *Engine) FailIngest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ingesting = false
}

// Installed hands out read-only access to the current corpus. It reports
// false while an ingestion is in flight, so queries are rejected rather
// than answered from an index about to be replaced.
func (e *Engine) Installed() (*domain.CorpusIndex, ports.VectorIndex, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.ingesting || e.corpus.Size() == 0 {
		return nil, nil, false
	}
	return e.corpus, e.index, true
}

func (e *Engine) SetModel(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = name
}

func (e *Engine) SelectedModel() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

func (e *Engine) Snapshot() domain.EngineStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return domain.EngineStatus{
		Indexed:             e.corpus.Size() > 0,
		ChunkCount:          e.corpus.Size(),
		DataFolder:          e.dataFolder,
		SelectedModel:       e.model,
		IngestionInProgress: e.ingesting,
	}
}
