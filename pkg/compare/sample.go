package compare

import (
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// SampleMismatch returns up to sampleCount mismatched row pairs for one
// compared column: the join-key columns plus both sides' values. The count
// is clamped to the available mismatches, so asking for more than exist is
// not an error. Selection uses the comparison's random source; with the
// default fixed seed the sample is reproducible. When forDisplay is set the
// value columns are labeled with the dataset names instead of role suffixes.
func (c *Comparison) SampleMismatch(column string, sampleCount int, forDisplay bool) (arrow.Record, error) {
	resIdx := -1
	for i, name := range c.intersectNonKey {
		if name == column {
			resIdx = i
			break
		}
	}
	if resIdx < 0 {
		return nil, fmt.Errorf("column %q is not a compared column", column)
	}

	var mismatches []int
	for i, ok := range c.results[resIdx].matches {
		if !ok {
			mismatches = append(mismatches, i)
		}
	}
	if sampleCount > len(mismatches) {
		sampleCount = len(mismatches)
	}
	if sampleCount < 0 {
		sampleCount = 0
	}

	perm := c.rng.Perm(len(mismatches))
	picked := make([]int, sampleCount)
	for i := 0; i < sampleCount; i++ {
		picked[i] = mismatches[perm[i]]
	}
	sort.Ints(picked)

	leftRows := make([]int, len(picked))
	rightRows := make([]int, len(picked))
	for i, pair := range picked {
		leftRows[i] = c.part.matchedLeft[pair]
		rightRows[i] = c.part.matchedRight[pair]
	}

	var fields []arrow.Field
	var cols []arrow.Array
	for _, name := range c.joinColumns {
		ci := c.left.Schema().FieldIndices(name)[0]
		fields = append(fields, c.left.Schema().Field(ci))
		cols = append(cols, takeColumn(c.alloc, c.left.Column(ci), leftRows))
	}

	leftLabel, rightLabel := column+leftSuffix, column+rightSuffix
	if forDisplay {
		leftLabel = fmt.Sprintf("%s (%s)", column, c.opts.LeftName)
		rightLabel = fmt.Sprintf("%s (%s)", column, c.opts.RightName)
	}
	li := c.left.Schema().FieldIndices(column)[0]
	ri := c.right.Schema().FieldIndices(column)[0]
	fields = append(fields,
		arrow.Field{Name: leftLabel, Type: c.left.Schema().Field(li).Type, Nullable: true},
		arrow.Field{Name: rightLabel, Type: c.right.Schema().Field(ri).Type, Nullable: true})
	cols = append(cols,
		takeColumn(c.alloc, c.left.Column(li), leftRows),
		takeColumn(c.alloc, c.right.Column(ri), rightRows))

	out := array.NewRecord(arrow.NewSchema(fields, nil), cols, int64(len(picked)))
	for _, col := range cols {
		col.Release()
	}
	return out, nil
}
