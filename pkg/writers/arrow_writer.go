package writers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/recomp/recomp/pkg/core"
)

// ArrowWriter writes records to an Arrow IPC file.
type ArrowWriter struct {
	file   *os.File
	writer *ipc.FileWriter
	schema *arrow.Schema
}

// NewArrowWriter creates a new Arrow IPC writer.
func NewArrowWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create Arrow file: %w", err)
	}

	// The file writer needs a schema, so it is created on first write.
	return &ArrowWriter{file: file}, nil
}

// Write writes a record to the file.
func (w *ArrowWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if w.writer == nil {
		writer, err := ipc.NewFileWriter(w.file, ipc.WithSchema(record.Schema()))
		if err != nil {
			return fmt.Errorf("failed to create Arrow writer: %w", err)
		}
		w.writer = writer
		w.schema = record.Schema()
	}

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close closes the writer and flushes any pending data.
func (w *ArrowWriter) Close() error {
	var err error
	if w.writer != nil {
		err = w.writer.Close()
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
