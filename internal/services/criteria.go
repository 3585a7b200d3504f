package services

import (
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/query"
)

// Criteria are the optional row filters shared by list, delete and
// visualize. Empty strings mean "absent".
type Criteria struct {
	Type     string
	Category string
	DateFrom string
	DateTo   string
}

// Filter parses the criteria. A date-only DateTo covers the whole day.
func (c Criteria) Filter() (query.Filter, error) {
	var f query.Filter

	if strings.TrimSpace(c.Type) != "" {
		kind, err := core.ParseKind(c.Type)
		if err != nil {
			return query.Filter{}, err
		}
		f.Kind = kind
	}

	f.Category = core.NormalizeCategory(c.Category)

	from, err := parseBound("date_from", c.DateFrom, false)
	if err != nil {
		return query.Filter{}, err
	}
	to, err := parseBound("date_to", c.DateTo, true)
	if err != nil {
		return query.Filter{}, err
	}
	if from != nil && to != nil && from.After(*to) {
		return query.Filter{}, &core.ValidationError{Field: "date_from", Reason: "must not be after date_to"}
	}
	f.DateFrom, f.DateTo = from, to

	return f, nil
}

func parseBound(field, s string, endOfDay bool) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := core.ParseTimestamp(s)
	if err != nil {
		return nil, &core.ValidationError{Field: field, Reason: "expected ISO-8601 (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"}
	}
	if endOfDay && core.IsDateOnly(s) {
		t = core.EndOfDay(t)
	}
	return &t, nil
}
