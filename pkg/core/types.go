// Package core provides the shared types and interfaces for the recomp
// dataset reconciliation tool.
package core

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// DatasetReader defines an interface for reading tabular data from a source.
type DatasetReader interface {
	// Read returns the next record batch.
	// Returns io.EOF when there are no more batches.
	Read(ctx context.Context) (arrow.Record, error)

	// ReadAll materializes the whole dataset as a single record.
	ReadAll(ctx context.Context) (arrow.Record, error)

	// Schema returns the schema of the dataset.
	Schema() *arrow.Schema

	// Close closes the reader and releases resources.
	Close() error
}

// DatasetWriter defines an interface for writing records to a destination.
type DatasetWriter interface {
	// Write writes a record to the destination.
	Write(ctx context.Context, record arrow.Record) error

	// Close closes the writer and flushes any pending data.
	Close() error
}

// ReaderConfig provides configuration for creating a reader.
type ReaderConfig struct {
	// Type is the reader type (csv, parquet, arrow, adbc).
	Type string

	// Path is the path to the file.
	Path string

	// Driver is the path to an ADBC driver shared library.
	Driver string

	// URI is the data source URI for ADBC readers.
	URI string

	// Table is the table to load for ADBC readers. Ignored when Query is set.
	Table string

	// Query is the query to execute for ADBC readers.
	Query string

	// BatchSize is the size of batches to read.
	BatchSize int64
}

// WriterConfig provides configuration for creating a writer.
type WriterConfig struct {
	// Type is the writer type (json, parquet, arrow).
	Type string

	// Path is the path to the output file.
	Path string
}
