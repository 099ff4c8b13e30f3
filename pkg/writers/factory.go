// Package writers provides dataset writers for exporting comparison results.
package writers

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/recomp/recomp/pkg/core"
)

// Creator is a function that creates a writer from a configuration.
type Creator func(config core.WriterConfig) (core.DatasetWriter, error)

// Factory creates a writer based on the given configuration.
type Factory struct {
	writers map[string]Creator
}

// NewFactory creates a new writer factory.
func NewFactory() *Factory {
	return &Factory{writers: make(map[string]Creator)}
}

// Register registers a creator for a writer type.
func (f *Factory) Register(typ string, creator Creator) {
	f.writers[typ] = creator
}

// Create creates a writer based on the given configuration.
func (f *Factory) Create(config core.WriterConfig) (core.DatasetWriter, error) {
	creator, ok := f.writers[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported writer type: %s", config.Type)
	}
	return creator(config)
}

// DefaultFactory is the default writer factory with built-in writer types.
var DefaultFactory = NewFactory()

func init() {
	DefaultFactory.Register("parquet", NewParquetWriter)
	DefaultFactory.Register("arrow", NewArrowWriter)
	DefaultFactory.Register("csv", NewCSVWriter)
	DefaultFactory.Register("json", NewJSONWriter)
}

// Save writes a single record to the configured destination.
func Save(ctx context.Context, config core.WriterConfig, record arrow.Record) error {
	writer, err := DefaultFactory.Create(config)
	if err != nil {
		return err
	}
	if err := writer.Write(ctx, record); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}
