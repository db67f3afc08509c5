package enrich

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput matches errors for transactions that cannot be enriched.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSchemaViolation matches errors for records that do not fit the output schema.
	ErrSchemaViolation = errors.New("schema violation")
)

// RowError describes one rejected input row.
type RowError struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Index, e.Field, e.Reason)
}

// InvalidInputError lists every rejected row of a batch, in index order.
type InvalidInputError struct {
	Rows []RowError
}

func (e *InvalidInputError) Error() string {
	msgs := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		msgs[i] = r.Error()
	}
	return fmt.Sprintf("invalid input: %s", strings.Join(msgs, "; "))
}

// Indices returns the indices of the rejected rows.
func (e *InvalidInputError) Indices() []int {
	idx := make([]int, 0, len(e.Rows))
	for _, r := range e.Rows {
		if len(idx) == 0 || idx[len(idx)-1] != r.Index {
			idx = append(idx, r.Index)
		}
	}
	return idx
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// SchemaViolationError reports a rule whose output does not match the record schema.
type SchemaViolationError struct {
	Index   int
	RuleHit string
	Missing []string
	Extra   []string
	Invalid []string // present but wrong type or value
}

func (e *SchemaViolationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "extra "+strings.Join(e.Extra, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("schema violation in row %d (%s): %s", e.Index, e.RuleHit, strings.Join(parts, "; "))
}

func (e *SchemaViolationError) Is(target error) bool { return target == ErrSchemaViolation }
