package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/daveymason/cy-bee/internal/core/domain"
)

// Parser walks a folder of tabular files and emits one chunk per data row.
// A file that cannot be opened or parsed is skipped with a warning; the scan
// itself only fails when the folder cannot be read at all.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) ParseFolder(_ context.Context, folder string) (domain.ParsedCorpus, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return domain.ParsedCorpus{}, domain.WrapError(domain.ErrInvalidInput, "scan folder", err)
	}

	result := domain.ParsedCorpus{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		parse, ok := parserFor(name)
		if !ok {
			continue
		}

		chunks, err := parse(filepath.Join(folder, name), name)
		if err != nil {
			result.FilesFailed++
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", name, err))
			slog.Warn("skipping unreadable file", "file", name, "error", err)
			continue
		}

		result.Chunks = append(result.Chunks, chunks...)
		result.FilesProcessed++
	}
	return result, nil
}

type fileParser func(path, name string) ([]domain.Chunk, error)

func parserFor(name string) (fileParser, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return parseCSVFile, true
	case ".xlsx", ".xlsm", ".xls", ".xlsb":
		return parseExcelFile, true
	default:
		return nil, false
	}
}

// buildRowText joins "<label>: <value>" pairs in original column order.
// Empty cells are omitted; a row with no non-empty cells yields "".
func buildRowText(labels, cells []string) string {
	n := len(cells)
	if len(labels) < n {
		n = len(labels)
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		value := strings.TrimSpace(cells[i])
		if value == "" {
			continue
		}
		label := strings.TrimSpace(labels[i])
		if label == "" {
			label = fmt.Sprintf("Column %d", i+1)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
	}
	return b.String()
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
