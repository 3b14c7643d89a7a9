package usecase

import (
	"fmt"
	"strings"

	"github.com/daveymason/cy-bee/internal/core/domain"
)

const analystPreamble = `You are an analyst helping a founder make sense of customer interview data. ` +
	`You are given a set of rows extracted from interview spreadsheets, each marked with a bracketed number and its source row. ` +
	`Answer the question using only those rows. Cite every row you rely on by its bracketed number, for example [2]. ` +
	`If the rows do not contain the answer, say so plainly instead of guessing.`

const noContextNote = "No rows matched the question."

// buildGroundedPrompt renders the retrieved rows into a numbered context
// block the model is told to answer from. Marker numbers follow retrieval
// rank, so [1] is always the closest row.
func buildGroundedPrompt(question string, retrieved []domain.Chunk) string {
	var b strings.Builder
	b.WriteString(analystPreamble)
	b.WriteString("\n\n---BEGIN DATA---\n")
	if len(retrieved) == 0 {
		b.WriteString(noContextNote)
		b.WriteString("\n")
	}
	for i, chunk := range retrieved {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, chunk.Citation().Label(), chunk.Text)
	}
	b.WriteString("---END DATA---\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("Remember: answer only from the data between the markers, and cite the rows you use.")
	return b.String()
}
