package writers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/recomp/recomp/pkg/core"
)

// CSVWriter writes records to a CSV file with a header row.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	schema *arrow.Schema
}

// NewCSVWriter creates a new CSV writer.
func NewCSVWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}

	// The CSV writer needs a schema, so it is created on first write.
	return &CSVWriter{file: file}, nil
}

// Write writes a record to the file.
func (w *CSVWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if w.writer == nil {
		w.writer = csv.NewWriter(w.file, record.Schema(), csv.WithHeader(true))
		w.schema = record.Schema()
	}

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close closes the writer and flushes any pending data.
func (w *CSVWriter) Close() error {
	var err error
	if w.writer != nil {
		err = w.writer.Flush()
		w.writer = nil
	}
	if w.file != nil {
		if err2 := w.file.Close(); err2 != nil && err == nil {
			err = err2
		}
		w.file = nil
	}
	return err
}
