package domain

import "time"

// Chunk is one retrievable unit of text derived from a single data row,
// carrying enough provenance to cite the row it came from.
type Chunk struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	SourceFile   string    `json:"source_file"`
	RowIndex     int       `json:"row_index"`
	ColumnLabels []string  `json:"column_labels,omitempty"`
	Embedding    []float32 `json:"-"`
}

// Citation returns the row-level provenance of the chunk.
func (c Chunk) Citation() Citation {
	return Citation{ChunkID: c.ID, SourceFile: c.SourceFile, RowIndex: c.RowIndex}
}

// ParsedCorpus is the parser's output for one folder scan. Per-file
// failures are collected as warnings, never as a scan-level error.
type ParsedCorpus struct {
	Chunks         []Chunk  `json:"chunks"`
	FilesProcessed int      `json:"files_processed"`
	FilesFailed    int      `json:"files_failed"`
	Warnings       []string `json:"warnings,omitempty"`
}

// CorpusIndex is an immutable snapshot of the chunks ingested from one
// folder. Re-ingestion builds a new index and swaps it in whole; an
// installed index is never mutated.
type CorpusIndex struct {
	Chunks    []Chunk   `json:"chunks"`
	Dimension int       `json:"dimension"`
	BuiltAt   time.Time `json:"built_at"`

	byID map[string]int
}

func NewCorpusIndex(chunks []Chunk, dimension int) *CorpusIndex {
	idx := &CorpusIndex{
		Chunks:    chunks,
		Dimension: dimension,
		BuiltAt:   time.Now().UTC(),
		byID:      make(map[string]int, len(chunks)),
	}
	for i, c := range chunks {
		idx.byID[c.ID] = i
	}
	return idx
}

func (ci *CorpusIndex) Size() int {
	if ci == nil {
		return 0
	}
	return len(ci.Chunks)
}

func (ci *CorpusIndex) ChunkByID(id string) (Chunk, bool) {
	if ci == nil {
		return Chunk{}, false
	}
	i, ok := ci.byID[id]
	if !ok {
		return Chunk{}, false
	}
	return ci.Chunks[i], true
}
