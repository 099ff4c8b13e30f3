// Package compare implements the record-matching and tolerance-comparison
// engine: it partitions two tabular datasets by join-key presence and
// reports, per column, where the matched rows agree under a numeric
// tolerance.
package compare

import (
	"math/rand"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	leftSuffix  = "_left"
	rightSuffix = "_right"

	defaultSampleSeed = 42
)

// Options configures a comparison.
type Options struct {
	// JoinColumns are the key columns to match records on. Mutually
	// exclusive with OnIndex.
	JoinColumns []string

	// OnIndex matches records by row position instead of key columns.
	OnIndex bool

	// AbsTol and RelTol bound the allowed numeric deviation: two values
	// are equal iff |left-right| <= AbsTol + RelTol*|right|. The right
	// dataset is the reference; callers treating one side as ground truth
	// should pass it as the right dataset.
	AbsTol float64
	RelTol float64

	// LeftName and RightName label the datasets in rendered output. They
	// have no effect on the comparison itself.
	LeftName  string
	RightName string

	// Parallel enables concurrent per-column comparison. Columns are
	// independent, so no synchronization beyond the fan-out is needed.
	Parallel   bool
	NumWorkers int

	// Logger receives diagnostic events. Defaults to a no-op logger so the
	// engine stays a pure function of its inputs plus an optional observer.
	Logger *zap.Logger

	// Rand drives mismatch sampling. Defaults to a fixed-seed source so
	// samples are reproducible across runs.
	Rand *rand.Rand
}

// Comparison holds the computed partitions and statistics for one pair of
// datasets. All fields are computed once by NewComparison and immutable
// afterwards; comparing with different tolerances requires a fresh run.
type Comparison struct {
	opts        Options
	joinColumns []string
	log         *zap.Logger
	rng         *rand.Rand
	alloc       memory.Allocator

	left     arrow.Record
	right    arrow.Record
	anyDupes bool

	part      partition
	leftOnly  arrow.Record
	rightOnly arrow.Record
	matched   arrow.Record

	// results[i] aligns with intersectNonKey[i].
	intersectNonKey []string
	results         []columnResult
	stats           []ColumnStat
}

// NewComparison validates both datasets, joins them on the resolved key and
// compares every shared non-key column. All validation failures surface
// here, before any join work; no partial result is ever produced.
func NewComparison(left, right arrow.Record, opts Options) (*Comparison, error) {
	if opts.OnIndex && opts.JoinColumns != nil {
		return nil, &ConfigurationError{Reason: "provide join columns or positional-index joining, not both"}
	}
	if opts.AbsTol < 0 || opts.RelTol < 0 {
		return nil, &ConfigurationError{Reason: "tolerances must be non-negative"}
	}
	if !opts.OnIndex && len(opts.JoinColumns) == 0 {
		return nil, &NoJoinKeyError{}
	}
	if opts.LeftName == "" {
		opts.LeftName = "left"
	}
	if opts.RightName == "" {
		opts.RightName = "right"
	}

	joinColumns := make([]string, len(opts.JoinColumns))
	for i, col := range opts.JoinColumns {
		joinColumns[i] = strings.ToLower(col)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(defaultSampleSeed))
	}

	c := &Comparison{
		opts:        opts,
		joinColumns: joinColumns,
		log:         log,
		rng:         rng,
		alloc:       memory.NewGoAllocator(),
	}

	normLeft, leftDupes, err := validateSide(left, opts.LeftName, joinColumns, opts.OnIndex)
	if err != nil {
		return nil, err
	}
	normRight, rightDupes, err := validateSide(right, opts.RightName, joinColumns, opts.OnIndex)
	if err != nil {
		normLeft.Release()
		return nil, err
	}
	c.left = normLeft
	c.right = normRight
	c.anyDupes = leftDupes || rightDupes

	c.partitionAndJoin()
	if err := c.compareIntersection(); err != nil {
		c.Release()
		return nil, err
	}

	if c.Matches(false) {
		c.log.Info("datasets match", zap.String("left", opts.LeftName), zap.String("right", opts.RightName))
	} else {
		c.log.Info("datasets do not match", zap.String("left", opts.LeftName), zap.String("right", opts.RightName))
	}
	return c, nil
}

// partitionAndJoin runs the key resolver and the partitioning join engine.
func (c *Comparison) partitionAndJoin() {
	keyIdxL := keyColumnIndices(c.left.Schema(), c.joinColumns)
	keyIdxR := keyColumnIndices(c.right.Schema(), c.joinColumns)

	if c.opts.OnIndex {
		c.part = partitionByIndex(int(c.left.NumRows()), int(c.right.NumRows()))
	} else {
		if c.anyDupes {
			c.log.Debug("duplicate join keys found, ranking by remaining fields")
		}
		c.part = partitionRows(c.left, c.right, keyIdxL, keyIdxR, c.anyDupes)
	}

	c.leftOnly = takeRows(c.alloc, c.left, c.part.leftOnly)
	c.rightOnly = takeRows(c.alloc, c.right, c.part.rightOnly)
	c.matched = buildMatched(c.alloc, c.left, c.right, c.part, keyIdxL, keyIdxR)

	c.log.Info("row partitioning complete",
		zap.Int("matched", len(c.part.matchedLeft)),
		zap.Int("left_only", len(c.part.leftOnly)),
		zap.Int("right_only", len(c.part.rightOnly)))
}

// compareIntersection evaluates the tolerance comparator for every shared
// non-key column, optionally fanning the columns out across workers. Each
// column writes only its own result slot.
func (c *Comparison) compareIntersection() error {
	c.intersectNonKey = c.intersectNonKeyColumns()
	c.results = make([]columnResult, len(c.intersectNonKey))

	run := func(i int) {
		name := c.intersectNonKey[i]
		li := c.left.Schema().FieldIndices(name)[0]
		ri := c.right.Schema().FieldIndices(name)[0]
		c.results[i] = compareColumn(
			c.left.Column(li), c.right.Column(ri),
			c.part.matchedLeft, c.part.matchedRight,
			c.opts.AbsTol, c.opts.RelTol)
	}

	if c.opts.Parallel && len(c.intersectNonKey) > 1 {
		workers := c.opts.NumWorkers
		if workers <= 0 {
			workers = 4
		}
		var g errgroup.Group
		g.SetLimit(workers)
		for i := range c.intersectNonKey {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for i := range c.intersectNonKey {
			run(i)
		}
	}

	c.buildStats()
	return nil
}

// intersectNonKeyColumns lists the columns shared by both sides, excluding
// the join key, in left schema order.
func (c *Comparison) intersectNonKeyColumns() []string {
	keySet := make(map[string]bool, len(c.joinColumns))
	for _, col := range c.joinColumns {
		keySet[col] = true
	}
	inRight := fieldSet(c.right.Schema())

	var cols []string
	for _, field := range c.left.Schema().Fields() {
		if keySet[field.Name] || !inRight[field.Name] {
			continue
		}
		cols = append(cols, field.Name)
	}
	return cols
}

// LeftOnlyRows returns the rows whose key has no counterpart in the right
// dataset. The record is owned by the Comparison.
func (c *Comparison) LeftOnlyRows() arrow.Record { return c.leftOnly }

// RightOnlyRows returns the rows whose key has no counterpart in the left
// dataset.
func (c *Comparison) RightOnlyRows() arrow.Record { return c.rightOnly }

// MatchedRows returns the matched row pairs: join-key columns unsuffixed,
// shared non-key columns carried from both sides with role suffixes.
func (c *Comparison) MatchedRows() arrow.Record { return c.matched }

// JoinColumns returns the normalized join columns, or nil when joining on
// the positional index.
func (c *Comparison) JoinColumns() []string { return c.joinColumns }

// OnIndex reports whether records were matched by row position.
func (c *Comparison) OnIndex() bool { return c.opts.OnIndex }

// LeftName returns the display label of the left dataset.
func (c *Comparison) LeftName() string { return c.opts.LeftName }

// RightName returns the display label of the right dataset.
func (c *Comparison) RightName() string { return c.opts.RightName }

// AnyDuplicates reports whether either side contained duplicate join keys.
func (c *Comparison) AnyDuplicates() bool { return c.anyDupes }

// Release frees the derived partitions. The input records are untouched.
func (c *Comparison) Release() {
	for _, rec := range []arrow.Record{c.leftOnly, c.rightOnly, c.matched, c.left, c.right} {
		if rec != nil {
			rec.Release()
		}
	}
	c.leftOnly, c.rightOnly, c.matched, c.left, c.right = nil, nil, nil, nil, nil
}
