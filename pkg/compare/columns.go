package compare

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// columnResult holds the per-row comparator output for one shared column,
// aligned with the matched row pairs.
type columnResult struct {
	matches  []bool
	maxDiff  float64
	nullDiff int
}

// compareColumn evaluates equality for every matched row pair of a single
// column. leftIdx and rightIdx map pair ordinals to row positions in the
// original datasets.
func compareColumn(left, right arrow.Array, leftIdx, rightIdx []int, absTol, relTol float64) columnResult {
	res := columnResult{matches: make([]bool, len(leftIdx))}

	for i := range leftIdx {
		li, ri := leftIdx[i], rightIdx[i]
		lNull, rNull := left.IsNull(li), right.IsNull(ri)

		if lNull != rNull {
			res.nullDiff++
		}

		switch {
		case lNull && rNull:
			res.matches[i] = true
		case lNull || rNull:
			res.matches[i] = false
		default:
			equal, diff := valuesEqual(left, right, li, ri, absTol, relTol)
			res.matches[i] = equal
			if !equal && !math.IsNaN(diff) && diff > res.maxDiff {
				res.maxDiff = diff
			}
		}
	}

	return res
}

// valuesEqual compares two non-null values. Numeric pairs are compared under
// abs_tol + rel_tol*|right|, with the right value as the reference. Anything
// that cannot be treated numerically falls back to exact comparison of the
// rendered value; mixed or unsupported types never raise. The returned diff
// is the absolute numeric difference, or NaN when it is not defined.
func valuesEqual(left, right arrow.Array, li, ri int, absTol, relTol float64) (bool, float64) {
	lv, lok := numericValue(left, li)
	rv, rok := numericValue(right, ri)

	if lok && rok {
		if math.IsNaN(lv) && math.IsNaN(rv) {
			return true, math.NaN()
		}
		diff := math.Abs(lv - rv)
		return diff <= absTol+relTol*math.Abs(rv), diff
	}

	return valueString(left, li) == valueString(right, ri), math.NaN()
}

// numericValue extracts a value as float64 when the column holds a numeric
// Arrow type.
func numericValue(arr arrow.Array, i int) (float64, bool) {
	switch a := arr.(type) {
	case *array.Int8:
		return float64(a.Value(i)), true
	case *array.Int16:
		return float64(a.Value(i)), true
	case *array.Int32:
		return float64(a.Value(i)), true
	case *array.Int64:
		return float64(a.Value(i)), true
	case *array.Uint8:
		return float64(a.Value(i)), true
	case *array.Uint16:
		return float64(a.Value(i)), true
	case *array.Uint32:
		return float64(a.Value(i)), true
	case *array.Uint64:
		return float64(a.Value(i)), true
	case *array.Float32:
		return float64(a.Value(i)), true
	case *array.Float64:
		return a.Value(i), true
	default:
		return 0, false
	}
}

// valueString renders a value for exact comparison and key building.
func valueString(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return "NULL"
	}
	val := arr.GetOneForMarshal(i)
	if val == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", val)
}
