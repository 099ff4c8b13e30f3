package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/recomp/recomp/pkg/core"
)

// ParquetReader reads Parquet files through the pqarrow bridge. Comparison
// sides are fully materialized anyway, so the reader loads the file as one
// table and serves it as a single batch.
type ParquetReader struct {
	file        *os.File
	fileReader  *file.Reader
	arrowReader *pqarrow.FileReader
	schema      *arrow.Schema
	alloc       memory.Allocator
	loaded      arrow.Record
	served      bool
}

// NewParquetReader creates a new Parquet reader.
func NewParquetReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet reader")
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 10000
	}

	f, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}

	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Parquet file reader: %w", err)
	}

	alloc := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: batchSize,
	}, alloc)
	if err != nil {
		parquetReader.Close()
		f.Close()
		return nil, fmt.Errorf("failed to create Arrow reader: %w", err)
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		parquetReader.Close()
		f.Close()
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	return &ParquetReader{
		file:        f,
		fileReader:  parquetReader,
		arrowReader: arrowReader,
		schema:      schema,
		alloc:       alloc,
	}, nil
}

// Read serves the materialized file once, then io.EOF.
func (r *ParquetReader) Read(ctx context.Context) (arrow.Record, error) {
	if r.served {
		return nil, io.EOF
	}
	rec, err := r.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	r.served = true
	return rec, nil
}

// ReadAll loads the whole file into a single record.
func (r *ParquetReader) ReadAll(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.loaded != nil {
		r.loaded.Retain()
		return r.loaded, nil
	}

	table, err := r.arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read Parquet file: %w", err)
	}
	defer table.Release()

	var batches []arrow.Record
	tableReader := array.NewTableReader(table, table.NumRows())
	defer tableReader.Release()
	for tableReader.Next() {
		rec := tableReader.Record()
		rec.Retain()
		batches = append(batches, rec)
	}
	defer func() {
		for _, rec := range batches {
			rec.Release()
		}
	}()
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("error reading batches: %w", err)
	}

	combined, err := combineRecords(r.alloc, r.schema, batches)
	if err != nil {
		return nil, err
	}
	r.loaded = combined
	r.loaded.Retain()
	return combined, nil
}

// Schema returns the schema of the dataset.
func (r *ParquetReader) Schema() *arrow.Schema {
	return r.schema
}

// Close closes the reader and releases resources.
func (r *ParquetReader) Close() error {
	if r.loaded != nil {
		r.loaded.Release()
		r.loaded = nil
	}

	var err error
	if r.fileReader != nil {
		err = r.fileReader.Close()
		r.fileReader = nil
	}
	if r.file != nil {
		if err2 := r.file.Close(); err2 != nil && err == nil {
			err = err2
		}
		r.file = nil
	}
	return err
}
