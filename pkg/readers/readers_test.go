package readers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/recomp/recomp/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVLoad(t *testing.T) {
	path := writeTempCSV(t, "id,name,score\n1,alice,0.5\n2,bob,1.5\n3,carol,2.5\n")

	rec, err := Load(context.Background(), core.ReaderConfig{Path: path})
	require.NoError(t, err)
	defer rec.Release()

	assert.EqualValues(t, 3, rec.NumRows())
	assert.EqualValues(t, 3, rec.NumCols())
	assert.Equal(t, "id", rec.Schema().Field(0).Name)
	assert.Equal(t, "score", rec.Schema().Field(2).Name)
}

func TestCSVLoadEmptyValuesAreNull(t *testing.T) {
	path := writeTempCSV(t, "id,name\n1,alice\n2,\n")

	rec, err := Load(context.Background(), core.ReaderConfig{Type: "csv", Path: path})
	require.NoError(t, err)
	defer rec.Release()

	require.EqualValues(t, 2, rec.NumRows())
	assert.True(t, rec.Column(1).IsNull(1))
}

func TestCSVReaderBatches(t *testing.T) {
	path := writeTempCSV(t, "id\n1\n2\n3\n4\n5\n")

	reader, err := NewCSVReader(core.ReaderConfig{Path: path, BatchSize: 2})
	require.NoError(t, err)
	defer reader.Close()

	total := int64(0)
	batches := 0
	for {
		rec, err := reader.Read(context.Background())
		if err != nil {
			break
		}
		total += rec.NumRows()
		batches++
		rec.Release()
	}
	assert.EqualValues(t, 5, total)
	assert.Equal(t, 3, batches)
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, "parquet", DetectType("data.parquet"))
	assert.Equal(t, "arrow", DetectType("data.arrow"))
	assert.Equal(t, "arrow", DetectType("data.feather"))
	assert.Equal(t, "csv", DetectType("data.csv"))
	assert.Equal(t, "csv", DetectType("data.txt"))
}

func TestFactoryUnsupportedType(t *testing.T) {
	_, err := DefaultFactory.Create(core.ReaderConfig{Type: "xml", Path: "x.xml"})
	assert.Error(t, err)
}

func TestReaderConfigValidation(t *testing.T) {
	_, err := NewCSVReader(core.ReaderConfig{})
	assert.Error(t, err)

	_, err = NewADBCReader(core.ReaderConfig{})
	assert.Error(t, err)

	_, err = NewADBCReader(core.ReaderConfig{Driver: "libduckdb.so"})
	assert.Error(t, err)
}

func TestLoadCancelledContext(t *testing.T) {
	path := writeTempCSV(t, "id\n1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, core.ReaderConfig{Path: path})
	assert.ErrorIs(t, err, context.Canceled)
}
