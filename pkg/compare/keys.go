package compare

import (
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// keySep separates column values inside a composite key. A non-printable
// separator keeps concatenated keys from colliding with data that contains
// the separator itself.
const keySep = "\x1f"

// keyColumnIndices resolves join column names to field positions.
func keyColumnIndices(schema *arrow.Schema, joinColumns []string) []int {
	idx := make([]int, 0, len(joinColumns))
	for _, name := range joinColumns {
		for i, field := range schema.Fields() {
			if field.Name == name {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

// rowKey builds the join-key string for one row from the key columns.
func rowKey(rec arrow.Record, keyIdx []int, row int) string {
	if len(keyIdx) == 1 {
		return valueString(rec.Column(keyIdx[0]), row)
	}
	var sb strings.Builder
	for j, ci := range keyIdx {
		if j > 0 {
			sb.WriteString(keySep)
		}
		sb.WriteString(valueString(rec.Column(ci), row))
	}
	return sb.String()
}

// hasDuplicateKeys reports whether any join-key value occurs more than once.
// This is the uniqueness scan the validator runs on each side.
func hasDuplicateKeys(rec arrow.Record, keyIdx []int) bool {
	seen := make(map[string]struct{}, rec.NumRows())
	for i := 0; i < int(rec.NumRows()); i++ {
		key := rowKey(rec, keyIdx, i)
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}

// duplicateRanks assigns each row a 0-based rank among the rows sharing its
// join-key value. Rows are ordered by their full column contents first, so
// structurally identical duplicates receive the same rank on both sides of a
// comparison regardless of original row order. The ranks live in a parallel
// slice keyed by row position; the caller's record is never touched.
func duplicateRanks(rec arrow.Record, keyIdx []int) []int {
	n := int(rec.NumRows())
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return compareRows(rec, order[a], order[b]) < 0
	})

	ranks := make([]int, n)
	counts := make(map[string]int, n)
	for _, row := range order {
		key := rowKey(rec, keyIdx, row)
		ranks[row] = counts[key]
		counts[key]++
	}
	return ranks
}

// compareRows orders two rows of the same record by their full column
// contents, column by column in schema order. Nulls sort before values,
// numeric columns compare numerically, everything else by rendered value.
func compareRows(rec arrow.Record, a, b int) int {
	for ci := 0; ci < int(rec.NumCols()); ci++ {
		col := rec.Column(ci)
		aNull, bNull := col.IsNull(a), col.IsNull(b)
		switch {
		case aNull && bNull:
			continue
		case aNull:
			return -1
		case bNull:
			return 1
		}

		if av, aok := numericValue(col, a); aok {
			bv, _ := numericValue(col, b)
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			continue
		}

		as, bs := valueString(col, a), valueString(col, b)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
	}
	return 0
}
