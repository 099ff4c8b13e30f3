package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/recomp/recomp/pkg/core"
)

// CSVReader reads CSV files into Arrow records with inferred column types.
type CSVReader struct {
	file   *os.File
	reader *csv.Reader
	schema *arrow.Schema
	alloc  memory.Allocator
}

// NewCSVReader creates a new CSV reader.
func NewCSVReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}

	chunkSize := config.BatchSize
	if chunkSize <= 0 {
		chunkSize = 10000
	}

	alloc := memory.NewGoAllocator()
	reader := csv.NewInferringReader(
		file,
		csv.WithChunk(int(chunkSize)),
		csv.WithHeader(true),
		csv.WithNullReader(true, ""),
		csv.WithAllocator(alloc),
	)

	return &CSVReader{file: file, reader: reader, alloc: alloc}, nil
}

// Read returns the next batch of records.
func (r *CSVReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if !r.reader.Next() {
		if err := r.reader.Err(); err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		return nil, io.EOF
	}
	if r.schema == nil {
		r.schema = r.reader.Schema()
	}

	record := r.reader.Record()
	record.Retain()
	return record, nil
}

// ReadAll loads the whole file into a single record.
func (r *CSVReader) ReadAll(ctx context.Context) (arrow.Record, error) {
	var batches []arrow.Record
	defer func() {
		for _, rec := range batches {
			rec.Release()
		}
	}()

	for {
		rec, err := r.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		batches = append(batches, rec)
	}

	if r.schema == nil {
		return nil, io.EOF
	}
	return combineRecords(r.alloc, r.schema, batches)
}

// Schema returns the schema of the dataset. For CSV the schema is only
// known after the first batch has been read.
func (r *CSVReader) Schema() *arrow.Schema {
	return r.schema
}

// Close closes the reader and releases resources.
func (r *CSVReader) Close() error {
	if r.reader != nil {
		r.reader.Release()
		r.reader = nil
	}
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}
