package writers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/recomp/recomp/pkg/core"
	"github.com/recomp/recomp/pkg/readers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(t *testing.T) arrow.Record {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	b.Field(1).(*array.StringBuilder).Append("alice")
	b.Field(1).(*array.StringBuilder).AppendNull()
	return b.NewRecord()
}

func TestJSONWriter(t *testing.T) {
	rec := sampleRecord(t)
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, Save(context.Background(), core.WriterConfig{Type: "json", Path: path}, rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.EqualValues(t, 1, rows[0]["id"])
	assert.Equal(t, "alice", rows[0]["name"])
	assert.Nil(t, rows[1]["name"])
}

func TestCSVWriterRoundTrip(t *testing.T) {
	rec := sampleRecord(t)
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Save(context.Background(), core.WriterConfig{Type: "csv", Path: path}, rec))

	back, err := readers.Load(context.Background(), core.ReaderConfig{Type: "csv", Path: path})
	require.NoError(t, err)
	defer back.Release()

	assert.EqualValues(t, 2, back.NumRows())
	assert.Equal(t, "id", back.Schema().Field(0).Name)
}

func TestArrowWriterRoundTrip(t *testing.T) {
	rec := sampleRecord(t)
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "out.arrow")
	require.NoError(t, Save(context.Background(), core.WriterConfig{Type: "arrow", Path: path}, rec))

	back, err := readers.Load(context.Background(), core.ReaderConfig{Type: "arrow", Path: path})
	require.NoError(t, err)
	defer back.Release()

	assert.EqualValues(t, 2, back.NumRows())
	assert.True(t, back.Schema().Equal(rec.Schema()))
}

func TestFactoryUnsupportedType(t *testing.T) {
	_, err := DefaultFactory.Create(core.WriterConfig{Type: "xlsx", Path: "x.xlsx"})
	assert.Error(t, err)
}
