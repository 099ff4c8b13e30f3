package readers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/drivermgr"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/recomp/recomp/pkg/core"
)

// ADBCReader reads a comparison side from any database reachable through an
// ADBC driver. The driver library and connection URI come from the reader
// configuration, so DuckDB, SQLite and Postgres all go through the same path.
type ADBCReader struct {
	db     adbc.Database
	conn   adbc.Connection
	stmt   adbc.Statement
	reader array.RecordReader
	alloc  memory.Allocator
}

// NewADBCReader opens a connection and executes the configured query. Either
// Query or Table must be set; Table expands to a full-table select.
func NewADBCReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Driver == "" {
		return nil, errors.New("driver is required for ADBC reader")
	}

	query := config.Query
	if query == "" {
		if config.Table == "" {
			return nil, errors.New("either query or table is required for ADBC reader")
		}
		query = fmt.Sprintf("SELECT * FROM %s", config.Table)
	}

	opts := map[string]string{
		"driver": config.Driver,
	}
	if config.URI != "" {
		opts["uri"] = config.URI
	}

	driver := drivermgr.Driver{}
	db, err := driver.NewDatabase(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ADBC database: %w", err)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open ADBC connection: %w", err)
	}

	stmt, err := conn.NewStatement()
	if err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create statement: %w", err)
	}
	if err := stmt.SetSqlQuery(query); err != nil {
		stmt.Close()
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("failed to set SQL query: %w", err)
	}

	reader, _, err := stmt.ExecuteQuery(ctx)
	if err != nil {
		stmt.Close()
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	return &ADBCReader{
		db:     db,
		conn:   conn,
		stmt:   stmt,
		reader: reader,
		alloc:  memory.NewGoAllocator(),
	}, nil
}

// Read returns the next batch from the query result.
func (r *ADBCReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if !r.reader.Next() {
		if err := r.reader.Err(); err != nil {
			return nil, fmt.Errorf("failed to read query result: %w", err)
		}
		return nil, io.EOF
	}
	record := r.reader.Record()
	record.Retain()
	return record, nil
}

// ReadAll drains the query result into a single record.
func (r *ADBCReader) ReadAll(ctx context.Context) (arrow.Record, error) {
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

// Schema returns the schema of the query result.
func (r *ADBCReader) Schema() *arrow.Schema {
	return r.reader.Schema()
}

// Close releases the result reader and tears down the connection.
func (r *ADBCReader) Close() error {
	var err error
	if r.reader != nil {
		r.reader.Release()
		r.reader = nil
	}
	if r.stmt != nil {
		if err2 := r.stmt.Close(); err2 != nil && err == nil {
			err = err2
		}
		r.stmt = nil
	}
	if r.conn != nil {
		if err2 := r.conn.Close(); err2 != nil && err == nil {
			err = err2
		}
		r.conn = nil
	}
	if r.db != nil {
		if err2 := r.db.Close(); err2 != nil && err == nil {
			err = err2
		}
		r.db = nil
	}
	return err
}
