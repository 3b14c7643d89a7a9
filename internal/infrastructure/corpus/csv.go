package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/daveymason/cy-bee/internal/core/domain"
)

func parseCSVFile(path, name string) ([]domain.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header row: %w", err)
	}
	headers = trimAll(headers)

	var chunks []domain.Chunk
	rowIndex := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowIndex+1, err)
		}

		// Blank rows keep their ordinal so citations match the source file.
		rowIndex++
		text := buildRowText(headers, record)
		if text == "" {
			continue
		}

		chunks = append(chunks, domain.Chunk{
			ID:           uuid.NewString(),
			Text:         text,
			SourceFile:   name,
			RowIndex:     rowIndex,
			ColumnLabels: headers,
		})
	}
	return chunks, nil
}
