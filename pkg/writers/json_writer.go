package writers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/recomp/recomp/pkg/core"
)

// JSONWriter writes records as a JSON array of row objects.
type JSONWriter struct {
	file     *os.File
	firstRow bool
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for JSON writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON file: %w", err)
	}

	if _, err := file.WriteString("[\n"); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write opening bracket: %w", err)
	}

	return &JSONWriter{file: file, firstRow: true}, nil
}

// Write writes a record to the file, one JSON object per row.
func (w *JSONWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	schema := record.Schema()
	for i := 0; i < int(record.NumRows()); i++ {
		row := make(map[string]interface{}, record.NumCols())
		for j := 0; j < int(record.NumCols()); j++ {
			col := record.Column(j)
			if col.IsNull(i) {
				row[schema.Field(j).Name] = nil
				continue
			}
			row[schema.Field(j).Name] = col.GetOneForMarshal(i)
		}

		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		if !w.firstRow {
			if _, err := w.file.WriteString(",\n"); err != nil {
				return fmt.Errorf("failed to write separator: %w", err)
			}
		}
		if _, err := w.file.WriteString("  " + string(data)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		w.firstRow = false
	}
	return nil
}

// Close writes the closing bracket and closes the file.
func (w *JSONWriter) Close() error {
	if w.file == nil {
		return nil
	}
	_, err := w.file.WriteString("\n]\n")
	if err2 := w.file.Close(); err2 != nil && err == nil {
		err = err2
	}
	w.file = nil
	return err
}
