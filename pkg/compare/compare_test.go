package compare

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeRecord builds a record from row-major test data.
func makeRecord(t *testing.T, fields []arrow.Field, data [][]interface{}) arrow.Record {
	t.Helper()
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema(fields, nil)

	builders := make([]array.Builder, len(fields))
	for i, field := range fields {
		builders[i] = array.NewBuilder(mem, field.Type)
	}
	for _, row := range data {
		for i, val := range row {
			if val == nil {
				builders[i].AppendNull()
				continue
			}
			switch b := builders[i].(type) {
			case *array.Int64Builder:
				b.Append(val.(int64))
			case *array.Float64Builder:
				b.Append(val.(float64))
			case *array.StringBuilder:
				b.Append(val.(string))
			case *array.BooleanBuilder:
				b.Append(val.(bool))
			default:
				t.Fatalf("unsupported builder type %T", b)
			}
		}
	}

	cols := make([]arrow.Array, len(fields))
	for i, b := range builders {
		cols[i] = b.NewArray()
		defer cols[i].Release()
		defer b.Release()
	}
	return array.NewRecord(schema, cols, int64(len(data)))
}

func idValFields() []arrow.Field {
	return []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "val", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}
}

func TestCompareIdentical(t *testing.T) {
	data := [][]interface{}{
		{int64(1), 1.0},
		{int64(2), 2.0},
		{int64(3), 3.0},
	}
	left := makeRecord(t, idValFields(), data)
	defer left.Release()
	right := makeRecord(t, idValFields(), data)
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	defer c.Release()

	assert.True(t, c.Matches(false))
	assert.True(t, c.AllRowsOverlap())
	assert.True(t, c.AllColumnsMatch())
	assert.True(t, c.IntersectRowsMatch())
	assert.Equal(t, 3, c.CountMatchingRows())

	for _, stat := range c.ColumnStats() {
		assert.Zero(t, stat.MismatchCount)
		assert.Zero(t, stat.NullDiff)
		assert.True(t, stat.AllMatch)
	}
}

func TestCompareScenario(t *testing.T) {
	left := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(2), 2.0},
		{int64(3), 3.0},
	})
	defer left.Release()
	right := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(2), 2.1},
		{int64(4), 4.0},
	})
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}, AbsTol: 0.05})
	require.NoError(t, err)
	defer c.Release()

	require.Equal(t, int64(1), c.LeftOnlyRows().NumRows())
	require.Equal(t, int64(1), c.RightOnlyRows().NumRows())
	require.Equal(t, int64(2), c.MatchedRows().NumRows())

	leftOnlyID := c.LeftOnlyRows().Column(0).(*array.Int64)
	assert.Equal(t, int64(3), leftOnlyID.Value(0))
	rightOnlyID := c.RightOnlyRows().Column(0).(*array.Int64)
	assert.Equal(t, int64(4), rightOnlyID.Value(0))

	require.Len(t, c.ColumnStats(), 1)
	stat := c.ColumnStats()[0]
	assert.Equal(t, "val", stat.Column)
	assert.Equal(t, 1, stat.MatchCount)
	assert.Equal(t, 1, stat.MismatchCount)
	assert.InDelta(t, 0.1, stat.MaxDiff, 1e-9)

	assert.False(t, c.Matches(false))
	assert.False(t, c.Subset())
	assert.Equal(t, 1, c.CountMatchingRows())
}

func TestDuplicateRowsBothMatched(t *testing.T) {
	data := [][]interface{}{
		{int64(1), 1.0},
		{int64(1), 1.0},
	}
	left := makeRecord(t, idValFields(), data)
	defer left.Release()
	right := makeRecord(t, idValFields(), data)
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	defer c.Release()

	assert.True(t, c.AnyDuplicates())
	assert.Equal(t, int64(0), c.LeftOnlyRows().NumRows())
	assert.Equal(t, int64(0), c.RightOnlyRows().NumRows())
	assert.Equal(t, int64(2), c.MatchedRows().NumRows())
	assert.True(t, c.Matches(false))
}

func TestDuplicateRowsPairByContent(t *testing.T) {
	// Same multiset of duplicate-keyed rows in different order on each side.
	left := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(1), 2.0},
	})
	defer left.Release()
	right := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 2.0},
		{int64(1), 1.0},
	})
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	defer c.Release()

	assert.Equal(t, int64(2), c.MatchedRows().NumRows())
	assert.Equal(t, 2, c.CountMatchingRows())
	assert.True(t, c.Matches(false))
}

func TestToleranceMonotonicity(t *testing.T) {
	left := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(2), 2.0},
		{int64(3), 3.0},
	})
	defer left.Release()
	right := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.02},
		{int64(2), 2.2},
		{int64(3), 5.0},
	})
	defer right.Release()

	prev := -1
	for _, tol := range []float64{0, 0.05, 0.3, 2.5} {
		c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}, AbsTol: tol})
		require.NoError(t, err)
		matching := c.CountMatchingRows()
		assert.GreaterOrEqual(t, matching, prev, "abs_tol=%v", tol)
		prev = matching
		c.Release()
	}
	assert.Equal(t, 3, prev)
}

func TestSubset(t *testing.T) {
	fields := []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "val", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "extra", Type: arrow.BinaryTypes.String, Nullable: true},
	}
	left := makeRecord(t, fields, [][]interface{}{
		{int64(1), 1.0, "a"},
		{int64(2), 2.0, "b"},
		{int64(3), 3.0, "c"},
	})
	defer left.Release()

	right := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(2), 2.0},
	})
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	assert.True(t, c.Subset())
	assert.False(t, c.Matches(false))
	c.Release()

	// A right-only row breaks the subset relationship.
	rightExtra := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(9), 9.0},
	})
	defer rightExtra.Release()

	c2, err := NewComparison(left, rightExtra, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	defer c2.Release()
	assert.False(t, c2.Subset())
}

func TestColumnSetSymmetry(t *testing.T) {
	leftFields := []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "a", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "b", Type: arrow.BinaryTypes.String, Nullable: true},
	}
	rightFields := []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "a", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "c", Type: arrow.BinaryTypes.String, Nullable: true},
	}
	left := makeRecord(t, leftFields, [][]interface{}{{int64(1), 1.0, "x"}})
	defer left.Release()
	right := makeRecord(t, rightFields, [][]interface{}{{int64(1), 1.0, "y"}})
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	defer c.Release()

	intersect := c.IntersectColumns()
	assert.ElementsMatch(t, []string{"id", "a"}, intersect)
	assert.Equal(t, []string{"b"}, c.LeftOnlyColumns())
	assert.Equal(t, []string{"c"}, c.RightOnlyColumns())

	for _, col := range c.LeftOnlyColumns() {
		assert.NotContains(t, intersect, col)
		assert.NotContains(t, c.RightOnlyColumns(), col)
	}
	assert.Len(t, append(c.LeftOnlyColumns(), intersect...), int(left.NumCols()))
	assert.Len(t, append(c.RightOnlyColumns(), intersect...), int(right.NumCols()))
}

func TestSampleMismatchClamped(t *testing.T) {
	left := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(2), 2.0},
		{int64(3), 3.0},
	})
	defer left.Release()
	right := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(2), 2.5},
		{int64(3), 3.5},
	})
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	defer c.Release()

	// More requested than available: clamp, never raise, never duplicate.
	sample, err := c.SampleMismatch("val", 100, false)
	require.NoError(t, err)
	defer sample.Release()
	assert.Equal(t, int64(2), sample.NumRows())

	ids := sample.Column(0).(*array.Int64)
	seen := map[int64]bool{}
	for i := 0; i < int(sample.NumRows()); i++ {
		assert.False(t, seen[ids.Value(i)])
		seen[ids.Value(i)] = true
	}

	// Display labels carry the dataset names.
	display, err := c.SampleMismatch("val", 1, true)
	require.NoError(t, err)
	defer display.Release()
	assert.Equal(t, "val (left)", display.Schema().Field(1).Name)
	assert.Equal(t, "val (right)", display.Schema().Field(2).Name)

	_, err = c.SampleMismatch("id", 1, false)
	assert.Error(t, err)
}

func TestSampleMismatchNoMismatches(t *testing.T) {
	data := [][]interface{}{{int64(1), 1.0}}
	left := makeRecord(t, idValFields(), data)
	defer left.Release()
	right := makeRecord(t, idValFields(), data)
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	defer c.Release()

	sample, err := c.SampleMismatch("val", 10, false)
	require.NoError(t, err)
	defer sample.Release()
	assert.Equal(t, int64(0), sample.NumRows())
}

func TestValidationErrors(t *testing.T) {
	rec := makeRecord(t, idValFields(), [][]interface{}{{int64(1), 1.0}})
	defer rec.Release()

	_, err := NewComparison(rec, rec, Options{JoinColumns: []string{"id"}, OnIndex: true})
	var confErr *ConfigurationError
	assert.ErrorAs(t, err, &confErr)

	_, err = NewComparison(rec, rec, Options{})
	var noKeyErr *NoJoinKeyError
	assert.ErrorAs(t, err, &noKeyErr)

	_, err = NewComparison(rec, rec, Options{JoinColumns: []string{"id"}, AbsTol: -1})
	assert.ErrorAs(t, err, &confErr)

	_, err = NewComparison(rec, rec, Options{JoinColumns: []string{"missing"}})
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, err.Error(), "missing")

	_, err = NewComparison(nil, rec, Options{JoinColumns: []string{"id"}})
	assert.ErrorAs(t, err, &schemaErr)

	dupFields := []arrow.Field{
		{Name: "ID", Type: arrow.PrimitiveTypes.Int64},
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}
	dup := makeRecord(t, dupFields, [][]interface{}{{int64(1), int64(1)}})
	defer dup.Release()
	_, err = NewComparison(dup, rec, Options{JoinColumns: []string{"id"}})
	var dupErr *DuplicateColumnError
	assert.ErrorAs(t, err, &dupErr)
}

func TestCaseNormalization(t *testing.T) {
	leftFields := []arrow.Field{
		{Name: "ID", Type: arrow.PrimitiveTypes.Int64},
		{Name: "Val", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}
	left := makeRecord(t, leftFields, [][]interface{}{{int64(1), 1.0}})
	defer left.Release()
	right := makeRecord(t, idValFields(), [][]interface{}{{int64(1), 1.0}})
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"Id"}})
	require.NoError(t, err)
	defer c.Release()

	assert.Equal(t, []string{"id"}, c.JoinColumns())
	assert.True(t, c.Matches(false))
}

func TestOnIndex(t *testing.T) {
	left := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(2), 2.0},
		{int64(3), 3.0},
	})
	defer left.Release()
	right := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(2), 9.0},
	})
	defer right.Release()

	c, err := NewComparison(left, right, Options{OnIndex: true})
	require.NoError(t, err)
	defer c.Release()

	assert.True(t, c.OnIndex())
	assert.Equal(t, int64(2), c.MatchedRows().NumRows())
	assert.Equal(t, int64(1), c.LeftOnlyRows().NumRows())
	assert.Equal(t, int64(0), c.RightOnlyRows().NumRows())
	assert.Equal(t, 1, c.CountMatchingRows())
}

func TestNullDivergence(t *testing.T) {
	left := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), nil},
		{int64(2), 2.0},
		{int64(3), nil},
	})
	defer left.Release()
	right := makeRecord(t, idValFields(), [][]interface{}{
		{int64(1), 1.0},
		{int64(2), nil},
		{int64(3), nil},
	})
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	defer c.Release()

	require.Len(t, c.ColumnStats(), 1)
	stat := c.ColumnStats()[0]
	assert.Equal(t, 2, stat.NullDiff)
	// Both-null counts as equal; one-sided nulls do not.
	assert.Equal(t, 1, stat.MatchCount)
	assert.Equal(t, 2, stat.MismatchCount)
}

func TestMatchesIgnoreExtraColumns(t *testing.T) {
	leftFields := []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "val", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "note", Type: arrow.BinaryTypes.String, Nullable: true},
	}
	left := makeRecord(t, leftFields, [][]interface{}{{int64(1), 1.0, "x"}})
	defer left.Release()
	right := makeRecord(t, idValFields(), [][]interface{}{{int64(1), 1.0}})
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	defer c.Release()

	assert.False(t, c.Matches(false))
	assert.True(t, c.Matches(true))
}

func TestParallelMatchesSerial(t *testing.T) {
	fields := []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "a", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "b", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "c", Type: arrow.BinaryTypes.String, Nullable: true},
	}
	var leftData, rightData [][]interface{}
	for i := 0; i < 50; i++ {
		leftData = append(leftData, []interface{}{int64(i), float64(i), float64(2 * i), "x"})
		rightData = append(rightData, []interface{}{int64(i), float64(i) + 0.001, float64(2 * i), "x"})
	}
	left := makeRecord(t, fields, leftData)
	defer left.Release()
	right := makeRecord(t, fields, rightData)
	defer right.Release()

	serial, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}, AbsTol: 0.01})
	require.NoError(t, err)
	defer serial.Release()

	parallel, err := NewComparison(left, right, Options{
		JoinColumns: []string{"id"}, AbsTol: 0.01, Parallel: true, NumWorkers: 3,
	})
	require.NoError(t, err)
	defer parallel.Release()

	assert.Equal(t, serial.ColumnStats(), parallel.ColumnStats())
	assert.Equal(t, serial.CountMatchingRows(), parallel.CountMatchingRows())
}

func TestMatchedRowsColumnNaming(t *testing.T) {
	leftFields := []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "val", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "note", Type: arrow.BinaryTypes.String, Nullable: true},
	}
	left := makeRecord(t, leftFields, [][]interface{}{{int64(1), 1.0, "x"}})
	defer left.Release()
	right := makeRecord(t, idValFields(), [][]interface{}{{int64(1), 1.0}})
	defer right.Release()

	c, err := NewComparison(left, right, Options{JoinColumns: []string{"id"}})
	require.NoError(t, err)
	defer c.Release()

	schema := c.MatchedRows().Schema()
	names := make([]string, schema.NumFields())
	for i := range names {
		names[i] = schema.Field(i).Name
	}
	assert.Equal(t, []string{"id", "val_left", "note", "val_right"}, names)
}
