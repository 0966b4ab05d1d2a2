// Package csv renders CSV source files into plain text, one block per row.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/wayfind-ai/wayfind/pkg/loader"
)

// CSVFileLoader loads and parses CSV files into text format.
type CSVFileLoader struct {
	loader loader.FileLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewCSVFileLoader creates a new CSVFileLoader with the given base loader.
func NewCSVFileLoader(base loader.FileLoader) *CSVFileLoader {
	return &CSVFileLoader{
		loader: base,
		cache:  make(map[string][]byte),
	}
}

// GetFileText retrieves and parses the CSV file content.
func (l *CSVFileLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}

		parsed, err := ParseCSV(content)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = parsed
		l.cacheMu.Unlock()

		return parsed, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// ParseCSV renders CSV content as text. The first row is treated as the
// header; each following row becomes a "header: value" block separated by
// a blank line. Malformed rows are skipped.
func ParseCSV(content []byte) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var output strings.Builder
	var header []string
	rowNum := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		isEmpty := true
		for _, field := range record {
			if strings.TrimSpace(field) != "" {
				isEmpty = false
				break
			}
		}
		if isEmpty {
			continue
		}

		if rowNum == 0 {
			header = record
			rowNum++
			continue
		}

		if output.Len() > 0 {
			output.WriteString("\n\n")
		}
		for i, field := range record {
			name := fmt.Sprintf("column_%d", i+1)
			if i < len(header) {
				name = strings.TrimSpace(header[i])
			}
			if i > 0 {
				output.WriteString("\n")
			}
			fmt.Fprintf(&output, "%s: %s", name, strings.TrimSpace(field))
		}
		rowNum++
	}

	if rowNum <= 1 {
		return nil, fmt.Errorf("csv contains no data rows")
	}

	return []byte(output.String()), nil
}
