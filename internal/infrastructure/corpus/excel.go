package corpus

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/daveymason/cy-bee/internal/core/domain"
)

func parseExcelFile(path, name string) ([]domain.Chunk, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var chunks []domain.Chunk
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			slog.Warn("skipping unreadable sheet", "file", name, "sheet", sheet, "error", err)
			continue
		}
		if len(rows) == 0 {
			continue
		}

		headers := trimAll(rows[0])
		source := fmt.Sprintf("%s (%s)", name, sheet)
		for i, row := range rows[1:] {
			text := buildRowText(headers, row)
			if text == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:           uuid.NewString(),
				Text:         text,
				SourceFile:   source,
				RowIndex:     i + 1,
				ColumnLabels: headers,
			})
		}
	}
	return chunks, nil
}
