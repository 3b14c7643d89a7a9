package domain

import "fmt"

// SearchHit is one vector-index match, scored by cosine similarity.
type SearchHit struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
}

type Citation struct {
	ChunkID    string `json:"chunk_id"`
	SourceFile string `json:"source_file"`
	RowIndex   int    `json:"row_index"`
}

// Label renders the citation as shown to the user and in prompt context
// headers, e.g. "interviews.csv, Row 12".
func (c Citation) Label() string {
	return fmt.Sprintf("%s, Row %d", c.SourceFile, c.RowIndex)
}

type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`

	// Retrieved counts the rows handed to the model, cited or not.
	Retrieved int `json:"-"`
}
