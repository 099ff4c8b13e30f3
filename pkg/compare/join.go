package compare

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// partition is the outcome of the full outer join: every row of each side
// lands in exactly one of its two buckets.
type partition struct {
	leftOnly  []int
	rightOnly []int
	// matchedLeft[i] pairs with matchedRight[i].
	matchedLeft  []int
	matchedRight []int
}

// partitionRows classifies every row of both datasets by key presence.
// When withRanks is set, each side's duplicate rank is folded into the
// effective key so duplicate rows pair deterministically.
func partitionRows(left, right arrow.Record, keyIdxL, keyIdxR []int, withRanks bool) partition {
	keysL := effectiveKeys(left, keyIdxL, withRanks)
	keysR := effectiveKeys(right, keyIdxR, withRanks)

	rightByKey := make(map[string]int, len(keysR))
	for i, key := range keysR {
		rightByKey[key] = i
	}

	var p partition
	rightMatched := make([]bool, len(keysR))
	for i, key := range keysL {
		if ri, ok := rightByKey[key]; ok {
			p.matchedLeft = append(p.matchedLeft, i)
			p.matchedRight = append(p.matchedRight, ri)
			rightMatched[ri] = true
		} else {
			p.leftOnly = append(p.leftOnly, i)
		}
	}
	for i := range keysR {
		if !rightMatched[i] {
			p.rightOnly = append(p.rightOnly, i)
		}
	}
	return p
}

// partitionByIndex pairs rows positionally: the i-th row of each side match,
// and whichever side is longer contributes the remainder to its only bucket.
func partitionByIndex(leftRows, rightRows int) partition {
	var p partition
	common := leftRows
	if rightRows < common {
		common = rightRows
	}
	for i := 0; i < common; i++ {
		p.matchedLeft = append(p.matchedLeft, i)
		p.matchedRight = append(p.matchedRight, i)
	}
	for i := common; i < leftRows; i++ {
		p.leftOnly = append(p.leftOnly, i)
	}
	for i := common; i < rightRows; i++ {
		p.rightOnly = append(p.rightOnly, i)
	}
	return p
}

// effectiveKeys builds the per-row join keys, appending the duplicate rank
// when requested.
func effectiveKeys(rec arrow.Record, keyIdx []int, withRanks bool) []string {
	n := int(rec.NumRows())
	keys := make([]string, n)
	var ranks []int
	if withRanks {
		ranks = duplicateRanks(rec, keyIdx)
	}
	for i := 0; i < n; i++ {
		key := rowKey(rec, keyIdx, i)
		if withRanks {
			key += keySep + strconv.Itoa(ranks[i])
		}
		keys[i] = key
	}
	return keys
}

// takeRows materializes the selected rows of a record as a new record that
// the caller owns.
func takeRows(alloc memory.Allocator, rec arrow.Record, rows []int) arrow.Record {
	cols := make([]arrow.Array, rec.NumCols())
	for i := 0; i < int(rec.NumCols()); i++ {
		cols[i] = takeColumn(alloc, rec.Column(i), rows)
	}
	out := array.NewRecord(rec.Schema(), cols, int64(len(rows)))
	for _, col := range cols {
		col.Release()
	}
	return out
}

// takeColumn copies the selected positions of one column into a fresh array.
func takeColumn(alloc memory.Allocator, col arrow.Array, rows []int) arrow.Array {
	b := array.NewBuilder(alloc, col.DataType())
	defer b.Release()
	for _, row := range rows {
		appendValue(b, col, row)
	}
	return b.NewArray()
}

// appendValue appends col[row] to the builder, preserving the value exactly
// for the common scalar types and falling back to the string form otherwise.
func appendValue(b array.Builder, col arrow.Array, row int) {
	if col.IsNull(row) {
		b.AppendNull()
		return
	}
	switch a := col.(type) {
	case *array.Int8:
		b.(*array.Int8Builder).Append(a.Value(row))
	case *array.Int16:
		b.(*array.Int16Builder).Append(a.Value(row))
	case *array.Int32:
		b.(*array.Int32Builder).Append(a.Value(row))
	case *array.Int64:
		b.(*array.Int64Builder).Append(a.Value(row))
	case *array.Uint8:
		b.(*array.Uint8Builder).Append(a.Value(row))
	case *array.Uint16:
		b.(*array.Uint16Builder).Append(a.Value(row))
	case *array.Uint32:
		b.(*array.Uint32Builder).Append(a.Value(row))
	case *array.Uint64:
		b.(*array.Uint64Builder).Append(a.Value(row))
	case *array.Float32:
		b.(*array.Float32Builder).Append(a.Value(row))
	case *array.Float64:
		b.(*array.Float64Builder).Append(a.Value(row))
	case *array.Boolean:
		b.(*array.BooleanBuilder).Append(a.Value(row))
	case *array.String:
		b.(*array.StringBuilder).Append(a.Value(row))
	default:
		if err := b.AppendValueFromString(col.ValueStr(row)); err != nil {
			b.AppendNull()
		}
	}
}

// buildMatched assembles the matched-pair record: join-key columns first
// (unsuffixed, taken from the left side), then the non-key columns of each
// side. Columns present on both sides get a role suffix; columns unique to
// one side keep their name.
func buildMatched(alloc memory.Allocator, left, right arrow.Record, p partition, keyIdxL, keyIdxR []int) arrow.Record {
	keySetL := make(map[int]bool, len(keyIdxL))
	for _, i := range keyIdxL {
		keySetL[i] = true
	}
	keySetR := make(map[int]bool, len(keyIdxR))
	for _, i := range keyIdxR {
		keySetR[i] = true
	}
	inRight := fieldSet(right.Schema())
	inLeft := fieldSet(left.Schema())

	var fields []arrow.Field
	var cols []arrow.Array

	for _, ci := range keyIdxL {
		fields = append(fields, left.Schema().Field(ci))
		cols = append(cols, takeColumn(alloc, left.Column(ci), p.matchedLeft))
	}
	for ci, field := range left.Schema().Fields() {
		if keySetL[ci] {
			continue
		}
		name := field.Name
		if inRight[name] {
			name += leftSuffix
		}
		fields = append(fields, arrow.Field{Name: name, Type: field.Type, Nullable: field.Nullable})
		cols = append(cols, takeColumn(alloc, left.Column(ci), p.matchedLeft))
	}
	for ci, field := range right.Schema().Fields() {
		if keySetR[ci] {
			continue
		}
		name := field.Name
		if inLeft[name] {
			name += rightSuffix
		}
		fields = append(fields, arrow.Field{Name: name, Type: field.Type, Nullable: field.Nullable})
		cols = append(cols, takeColumn(alloc, right.Column(ci), p.matchedRight))
	}

	out := array.NewRecord(arrow.NewSchema(fields, nil), cols, int64(len(p.matchedLeft)))
	for _, col := range cols {
		col.Release()
	}
	return out
}

func fieldSet(schema *arrow.Schema) map[string]bool {
	set := make(map[string]bool, schema.NumFields())
	for _, f := range schema.Fields() {
		set[f.Name] = true
	}
	return set
}
