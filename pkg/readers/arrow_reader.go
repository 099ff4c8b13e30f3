package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/recomp/recomp/pkg/core"
)

// ArrowReader reads Arrow IPC files.
type ArrowReader struct {
	file    *os.File
	reader  *ipc.FileReader
	alloc   memory.Allocator
	current int
}

// NewArrowReader creates a new Arrow IPC reader.
func NewArrowReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Arrow file: %w", err)
	}

	reader, err := ipc.NewFileReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create Arrow file reader: %w", err)
	}

	return &ArrowReader{
		file:   file,
		reader: reader,
		alloc:  memory.NewGoAllocator(),
	}, nil
}

// Read returns the next record batch in the file.
func (r *ArrowReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.current >= r.reader.NumRecords() {
		return nil, io.EOF
	}
	record, err := r.reader.Record(r.current)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %d: %w", r.current, err)
	}
	r.current++
	record.Retain()
	return record, nil
}

// ReadAll loads the whole file into a single record.
func (r *ArrowReader) ReadAll(ctx context.Context) (arrow.Record, error) {
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
	return combineRecords(r.alloc, r.reader.Schema(), batches)
}

// Schema returns the schema of the dataset.
func (r *ArrowReader) Schema() *arrow.Schema {
	return r.reader.Schema()
}

// Close closes the reader and releases resources.
func (r *ArrowReader) Close() error {
	var err error
	if r.reader != nil {
		err = r.reader.Close()
		r.reader = nil
	}
	if r.file != nil {
		if err2 := r.file.Close(); err2 != nil && err == nil {
			err = err2
		}
		r.file = nil
	}
	return err
}
