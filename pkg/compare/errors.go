package compare

import "fmt"

// ConfigurationError indicates an invalid combination of comparison options,
// such as specifying join columns together with positional-index joining.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid comparison configuration: " + e.Reason
}

// SchemaError indicates that one of the input datasets is not usable: the
// record is nil, or it is missing one or more of the join columns.
type SchemaError struct {
	Side    string
	Reason  string
	Missing []string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s dataset is missing join columns %v", e.Side, e.Missing)
	}
	return fmt.Sprintf("%s dataset: %s", e.Side, e.Reason)
}

// DuplicateColumnError indicates that a dataset contains column names that
// collide after case normalization.
type DuplicateColumnError struct {
	Side   string
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("%s dataset has duplicate column name %q after lowercasing", e.Side, e.Column)
}

// NoJoinKeyError indicates that key resolution produced zero usable key
// columns.
type NoJoinKeyError struct{}

func (e *NoJoinKeyError) Error() string {
	return "no join key: provide join columns or enable positional-index joining"
}
