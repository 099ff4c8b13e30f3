package compare

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// validateSide checks the structural preconditions on one dataset and
// returns a view of it with case-normalized column names. The returned
// record shares the input's column arrays; the caller's record is never
// modified. It also reports whether the side contains duplicate join-key
// values, which the key resolver uses to decide on rank augmentation.
func validateSide(rec arrow.Record, side string, joinColumns []string, onIndex bool) (arrow.Record, bool, error) {
	if rec == nil {
		return nil, false, &SchemaError{Side: side, Reason: "not a valid tabular record"}
	}

	normalized, err := normalizeNames(rec, side)
	if err != nil {
		return nil, false, err
	}

	if !onIndex {
		var missing []string
		names := fieldSet(normalized.Schema())
		for _, col := range joinColumns {
			if !names[col] {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			normalized.Release()
			return nil, false, &SchemaError{Side: side, Missing: missing}
		}
	}

	// Positional indices are unique by construction, so only key-column
	// joins can see duplicates.
	hasDupes := false
	if !onIndex {
		hasDupes = hasDuplicateKeys(normalized, keyColumnIndices(normalized.Schema(), joinColumns))
	}

	return normalized, hasDupes, nil
}

// normalizeNames lowercases every column name, failing when two names
// collide after normalization.
func normalizeNames(rec arrow.Record, side string) (arrow.Record, error) {
	seen := make(map[string]bool, rec.Schema().NumFields())
	fields := make([]arrow.Field, rec.Schema().NumFields())
	for i, field := range rec.Schema().Fields() {
		name := strings.ToLower(field.Name)
		if seen[name] {
			return nil, &DuplicateColumnError{Side: side, Column: name}
		}
		seen[name] = true
		field.Name = name
		fields[i] = field
	}
	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, rec.Columns(), rec.NumRows()), nil
}
