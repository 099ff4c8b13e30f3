// Package readers provides dataset readers for the formats recomp can load
// a comparison side from.
package readers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/recomp/recomp/pkg/core"
)

// Creator is a function that creates a reader from a configuration.
type Creator func(config core.ReaderConfig) (core.DatasetReader, error)

// Factory creates a reader based on the given configuration.
type Factory struct {
	readers map[string]Creator
}

// NewFactory creates a new reader factory.
func NewFactory() *Factory {
	return &Factory{readers: make(map[string]Creator)}
}

// Register registers a creator for a reader type.
func (f *Factory) Register(typ string, creator Creator) {
	f.readers[typ] = creator
}

// Create creates a reader based on the given configuration.
func (f *Factory) Create(config core.ReaderConfig) (core.DatasetReader, error) {
	creator, ok := f.readers[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported reader type: %s", config.Type)
	}
	return creator(config)
}

// DefaultFactory is the default reader factory with built-in reader types.
var DefaultFactory = NewFactory()

func init() {
	DefaultFactory.Register("csv", NewCSVReader)
	DefaultFactory.Register("parquet", NewParquetReader)
	DefaultFactory.Register("arrow", NewArrowReader)
	DefaultFactory.Register("adbc", NewADBCReader)
}

// DetectType guesses the reader type from a file extension, defaulting to
// csv.
func DetectType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "parquet"
	case ".arrow", ".arrows", ".feather":
		return "arrow"
	case ".csv":
		return "csv"
	default:
		return "csv"
	}
}

// Load materializes a whole dataset as a single record the caller owns.
func Load(ctx context.Context, config core.ReaderConfig) (arrow.Record, error) {
	if config.Type == "" {
		config.Type = DetectType(config.Path)
	}
	reader, err := DefaultFactory.Create(config)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return reader.ReadAll(ctx)
}

// combineRecords merges a batch list into one record the caller owns.
// The input records are not released.
func combineRecords(alloc memory.Allocator, schema *arrow.Schema, records []arrow.Record) (arrow.Record, error) {
	if len(records) == 0 {
		return emptyRecord(alloc, schema), nil
	}
	if len(records) == 1 {
		rec := records[0]
		rec.Retain()
		return rec, nil
	}

	table := array.NewTableFromRecords(schema, records)
	defer table.Release()

	tableReader := array.NewTableReader(table, table.NumRows())
	defer tableReader.Release()

	if !tableReader.Next() {
		return nil, fmt.Errorf("failed to read combined table")
	}
	combined := tableReader.Record()

	cols := make([]arrow.Array, combined.NumCols())
	for i, col := range combined.Columns() {
		cols[i] = array.MakeFromData(col.Data())
	}
	out := array.NewRecord(schema, cols, combined.NumRows())
	for _, col := range cols {
		col.Release()
	}
	return out, nil
}

// emptyRecord builds a zero-row record with the given schema.
func emptyRecord(alloc memory.Allocator, schema *arrow.Schema) arrow.Record {
	cols := make([]arrow.Array, schema.NumFields())
	for i, field := range schema.Fields() {
		b := array.NewBuilder(alloc, field.Type)
		cols[i] = b.NewArray()
		b.Release()
	}
	rec := array.NewRecord(schema, cols, 0)
	for _, col := range cols {
		col.Release()
	}
	return rec
}
