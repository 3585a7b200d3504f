package sheets

import (
	"context"

	"ledger/internal/core"
)

// Header is the first row of a mirror sheet.
var Header = []any{"id", "type", "amount", "category", "description", "occurred_at"}

// Mirror is an append-only copy of the ledger kept outside the database.
type Mirror interface {
	// AppendEntry adds e unless a row with its id is already present.
	AppendEntry(ctx context.Context, e core.Entry) error

	// DeleteEntries removes the rows for ids and reports how many were found.
	DeleteEntries(ctx context.Context, ids []int64) (int, error)
}

// EntryRow renders e in Header column order.
func EntryRow(e core.Entry) []any {
	return []any{
		e.ID,
		string(e.Kind),
		e.Amount.String(),
		e.Category,
		e.Description,
		core.FormatTimestamp(e.OccurredAt),
	}
}
