package compare

import "go.uber.org/zap"

// ColumnStat summarizes the comparator output for one shared non-key column.
type ColumnStat struct {
	Column        string  `json:"column"`
	LeftType      string  `json:"left_type"`
	RightType     string  `json:"right_type"`
	MatchCount    int     `json:"match_count"`
	MismatchCount int     `json:"mismatch_count"`
	// MaxDiff is the largest absolute numeric difference among mismatched
	// pairs, 0 when the column is non-numeric or fully matching.
	MaxDiff float64 `json:"max_diff"`
	// NullDiff counts matched rows where exactly one side is null.
	NullDiff int  `json:"null_diff"`
	AllMatch bool `json:"all_match"`
}

// buildStats folds the per-column comparator results into ColumnStats,
// ordered by left schema order.
func (c *Comparison) buildStats() {
	c.stats = make([]ColumnStat, len(c.intersectNonKey))
	for i, name := range c.intersectNonKey {
		res := c.results[i]
		matchCnt := 0
		for _, ok := range res.matches {
			if ok {
				matchCnt++
			}
		}
		li := c.left.Schema().FieldIndices(name)[0]
		ri := c.right.Schema().FieldIndices(name)[0]
		leftType := c.left.Schema().Field(li).Type.String()
		rightType := c.right.Schema().Field(ri).Type.String()

		c.stats[i] = ColumnStat{
			Column:        name,
			LeftType:      leftType,
			RightType:     rightType,
			MatchCount:    matchCnt,
			MismatchCount: len(res.matches) - matchCnt,
			MaxDiff:       res.maxDiff,
			NullDiff:      res.nullDiff,
			AllMatch:      leftType == rightType && matchCnt == len(res.matches),
		}
		c.log.Debug("column compared",
			zap.String("column", name),
			zap.Int("matched", matchCnt),
			zap.Int("rows", len(res.matches)))
	}
}

// ColumnStats returns the per-column statistics in left schema order.
func (c *Comparison) ColumnStats() []ColumnStat { return c.stats }

// IntersectColumns returns the columns present in both datasets, including
// key columns, in left schema order.
func (c *Comparison) IntersectColumns() []string {
	inRight := fieldSet(c.right.Schema())
	var cols []string
	for _, field := range c.left.Schema().Fields() {
		if inRight[field.Name] {
			cols = append(cols, field.Name)
		}
	}
	return cols
}

// LeftOnlyColumns returns the columns unique to the left dataset.
func (c *Comparison) LeftOnlyColumns() []string {
	inRight := fieldSet(c.right.Schema())
	var cols []string
	for _, field := range c.left.Schema().Fields() {
		if !inRight[field.Name] {
			cols = append(cols, field.Name)
		}
	}
	return cols
}

// RightOnlyColumns returns the columns unique to the right dataset.
func (c *Comparison) RightOnlyColumns() []string {
	inLeft := fieldSet(c.left.Schema())
	var cols []string
	for _, field := range c.right.Schema().Fields() {
		if !inLeft[field.Name] {
			cols = append(cols, field.Name)
		}
	}
	return cols
}

// AllColumnsMatch reports whether both datasets have exactly the same
// column set.
func (c *Comparison) AllColumnsMatch() bool {
	return len(c.LeftOnlyColumns()) == 0 && len(c.RightOnlyColumns()) == 0
}

// AllRowsOverlap reports whether every row found a counterpart on the other
// side.
func (c *Comparison) AllRowsOverlap() bool {
	return len(c.part.leftOnly) == 0 && len(c.part.rightOnly) == 0
}

// CountMatchingRows counts the matched row pairs where every compared
// non-key column is equal.
func (c *Comparison) CountMatchingRows() int {
	count := 0
	for i := 0; i < len(c.part.matchedLeft); i++ {
		all := true
		for _, res := range c.results {
			if !res.matches[i] {
				all = false
				break
			}
		}
		if all {
			count++
		}
	}
	return count
}

// IntersectRowsMatch reports whether every matched row pair is fully equal.
func (c *Comparison) IntersectRowsMatch() bool {
	return c.CountMatchingRows() == len(c.part.matchedLeft)
}

// Matches reports whether the datasets are the same data: same columns
// (unless ignoreExtraColumns), full row overlap, and all matched rows equal
// under the configured tolerances.
func (c *Comparison) Matches(ignoreExtraColumns bool) bool {
	if !ignoreExtraColumns && !c.AllColumnsMatch() {
		return false
	}
	return c.AllRowsOverlap() && c.IntersectRowsMatch()
}

// Subset reports whether the right dataset is fully contained in the left:
// no right-only columns, no right-only rows, and all matched rows equal for
// the shared schema.
func (c *Comparison) Subset() bool {
	if len(c.RightOnlyColumns()) > 0 {
		return false
	}
	if len(c.part.rightOnly) > 0 {
		return false
	}
	return c.IntersectRowsMatch()
}

// Summary is the serializable digest of a comparison, consumed by the
// report generators and the HTTP API.
type Summary struct {
	LeftName  string `json:"left_name"`
	RightName string `json:"right_name"`

	LeftRows     int `json:"left_rows"`
	LeftColumns  int `json:"left_columns"`
	RightRows    int `json:"right_rows"`
	RightColumns int `json:"right_columns"`

	JoinColumns []string `json:"join_columns,omitempty"`
	OnIndex     bool     `json:"on_index"`
	AbsTol      float64  `json:"abs_tol"`
	RelTol      float64  `json:"rel_tol"`

	AnyDuplicates bool `json:"any_duplicates"`

	MatchedRows   int `json:"matched_rows"`
	MatchingRows  int `json:"matching_rows"`
	LeftOnlyRows  int `json:"left_only_rows"`
	RightOnlyRows int `json:"right_only_rows"`

	CommonColumns    []string `json:"common_columns"`
	LeftOnlyColumns  []string `json:"left_only_columns,omitempty"`
	RightOnlyColumns []string `json:"right_only_columns,omitempty"`

	ColumnStats []ColumnStat `json:"column_stats"`

	Matches bool `json:"matches"`
	Subset  bool `json:"subset"`
}

// Summary builds the digest for this comparison.
func (c *Comparison) Summary() Summary {
	return Summary{
		LeftName:         c.opts.LeftName,
		RightName:        c.opts.RightName,
		LeftRows:         int(c.left.NumRows()),
		LeftColumns:      int(c.left.NumCols()),
		RightRows:        int(c.right.NumRows()),
		RightColumns:     int(c.right.NumCols()),
		JoinColumns:      c.joinColumns,
		OnIndex:          c.opts.OnIndex,
		AbsTol:           c.opts.AbsTol,
		RelTol:           c.opts.RelTol,
		AnyDuplicates:    c.anyDupes,
		MatchedRows:      len(c.part.matchedLeft),
		MatchingRows:     c.CountMatchingRows(),
		LeftOnlyRows:     len(c.part.leftOnly),
		RightOnlyRows:    len(c.part.rightOnly),
		CommonColumns:    c.IntersectColumns(),
		LeftOnlyColumns:  c.LeftOnlyColumns(),
		RightOnlyColumns: c.RightOnlyColumns(),
		ColumnStats:      c.stats,
		Matches:          c.Matches(false),
		Subset:           c.Subset(),
	}
}
