package writers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/recomp/recomp/pkg/core"
)

// ParquetWriter writes records to a Parquet file.
type ParquetWriter struct {
	file   *os.File
	writer *pqarrow.FileWriter
	schema *arrow.Schema
}

// NewParquetWriter creates a new Parquet writer.
func NewParquetWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create Parquet file: %w", err)
	}

	// The file writer needs a schema, so it is created on first write.
	return &ParquetWriter{file: file}, nil
}

// Write writes a record to the file.
func (w *ParquetWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if w.writer == nil {
		writeProps := parquet.NewWriterProperties(
			parquet.WithCompression(compress.Codecs.Snappy),
			parquet.WithDictionaryDefault(false),
		)
		writer, err := pqarrow.NewFileWriter(
			record.Schema(),
			w.file,
			writeProps,
			pqarrow.NewArrowWriterProperties(),
		)
		if err != nil {
			return fmt.Errorf("failed to create Parquet writer: %w", err)
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
func (w *ParquetWriter) Close() error {
	var err error
	if w.writer != nil {
		// Closing the pqarrow writer also closes the underlying file.
		err = w.writer.Close()
		w.writer = nil
		w.file = nil
	}
	if w.file != nil {
		if err2 := w.file.Close(); err2 != nil && err == nil {
			err = err2
		}
		w.file = nil
	}
	return err
}
