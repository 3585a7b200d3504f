package query

import (
	"time"

	"ledger/internal/core"
)

// Filter is the sparse set of optional criteria callers may supply. Zero
// values mean "absent".
type Filter struct {
	ID        *int64
	IDs       []int64
	Kind      core.Kind
	Category  string
	DateFrom  *time.Time
	DateTo    *time.Time
	OlderThan *time.Time
}

// IsEmpty reports whether no criterion is present.
func (f Filter) IsEmpty() bool {
	return f.ID == nil && len(f.IDs) == 0 && f.Kind == "" && f.Category == "" &&
		f.DateFrom == nil && f.DateTo == nil && f.OlderThan == nil
}

// OnlyID reports whether the filter names a single id and nothing else.
func (f Filter) OnlyID() bool {
	return f.ID != nil && len(f.IDs) == 0 && f.Kind == "" && f.Category == "" &&
		f.DateFrom == nil && f.DateTo == nil && f.OlderThan == nil
}

// Predicate returns the conjunction of the present criteria, or nil when the
// filter is empty. A non-empty IDs set takes precedence over every other
// field and yields a plain membership test.
func (f Filter) Predicate() Predicate {
	if len(f.IDs) > 0 {
		values := make([]any, len(f.IDs))
		for i, id := range f.IDs {
			values[i] = id
		}
		return In{Column: ColID, Values: values}
	}

	var preds []Predicate
	if f.ID != nil {
		preds = append(preds, Eq{Column: ColID, Value: *f.ID})
	}
	if f.Kind != "" {
		preds = append(preds, Eq{Column: ColType, Value: string(f.Kind)})
	}
	if f.Category != "" {
		preds = append(preds, Eq{Column: ColCategory, Value: f.Category})
	}
	if f.DateFrom != nil {
		preds = append(preds, Gte{Column: ColOccurredAt, Value: core.FormatTimestamp(*f.DateFrom)})
	}
	if f.DateTo != nil {
		preds = append(preds, Lte{Column: ColOccurredAt, Value: core.FormatTimestamp(*f.DateTo)})
	}
	if f.OlderThan != nil {
		preds = append(preds, Lt{Column: ColOccurredAt, Value: core.FormatTimestamp(*f.OlderThan)})
	}

	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}
