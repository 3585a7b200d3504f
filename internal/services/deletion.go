package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/query"
)

// DeleteRequest names the rows to remove. At least one criterion is
// required. ID alone deletes immediately; every other shape is previewed
// until ConfirmBulk is set.
type DeleteRequest struct {
	Criteria
	ID          *int64
	IDs         []int64
	OlderThan   string
	ConfirmBulk bool
}

// DeleteOutcome is one of EntryNotFound, EntryDeleted, NoMatch, Preview or
// Committed.
type DeleteOutcome interface {
	deleteOutcome()
}

type (
	// EntryNotFound is returned when a single-id delete names a missing row.
	EntryNotFound struct {
		ID int64
	}

	// EntryDeleted reports the row removed by a single-id delete.
	EntryDeleted struct {
		Entry core.Entry
	}

	// NoMatch means the criteria select nothing. No confirmation is asked.
	NoMatch struct{}

	// Preview describes what a confirmed delete would remove. Nothing has
	// been deleted.
	Preview struct {
		Count     int
		Breakdown core.Summary
		Total     core.Money
		Sample    []core.Entry
	}

	// Committed reports a confirmed bulk delete. IDs holds at most the
	// configured number of ids; Truncated is set when more were removed.
	Committed struct {
		DeletedCount int
		IDs          []int64
		Truncated    bool
	}
)

func (EntryNotFound) deleteOutcome() {}
func (EntryDeleted) deleteOutcome()  {}
func (NoMatch) deleteOutcome()       {}
func (Preview) deleteOutcome()       {}
func (Committed) deleteOutcome()     {}

// Delete runs the two-phase deletion workflow.
func (s *LedgerService) Delete(ctx context.Context, req DeleteRequest) (DeleteOutcome, error) {
	filter, err := req.filter()
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return nil, core.ErrNoCriteria
	}

	if filter.OnlyID() {
		return s.deleteOne(ctx, *filter.ID)
	}

	where := filter.Predicate()
	if !req.ConfirmBulk {
		return s.preview(ctx, where)
	}
	return s.commit(ctx, where)
}

func (req DeleteRequest) filter() (query.Filter, error) {
	f, err := req.Criteria.Filter()
	if err != nil {
		return query.Filter{}, err
	}

	if req.ID != nil {
		if *req.ID <= 0 {
			return query.Filter{}, &core.ValidationError{Field: "id", Reason: "must be a positive integer"}
		}
		id := *req.ID
		f.ID = &id
	}

	for _, id := range req.IDs {
		if id <= 0 {
			return query.Filter{}, &core.ValidationError{Field: "ids", Reason: "must contain positive integers"}
		}
	}
	f.IDs = req.IDs

	if strings.TrimSpace(req.OlderThan) != "" {
		t, err := core.ParseTimestamp(req.OlderThan)
		if err != nil {
			return query.Filter{}, &core.ValidationError{Field: "older_than", Reason: "expected ISO-8601 (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"}
		}
		f.OlderThan = &t
	}

	return f, nil
}

func (s *LedgerService) deleteOne(ctx context.Context, id int64) (DeleteOutcome, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return EntryNotFound{ID: id}, nil
		}
		return nil, storeErr("look up transaction", err)
	}

	removed, err := s.store.Delete(ctx, query.Eq{Column: query.ColID, Value: id})
	if err != nil {
		return nil, storeErr("delete transaction", err)
	}
	if len(removed) == 0 {
		// Removed by someone else between the lookup and the delete.
		return EntryNotFound{ID: id}, nil
	}

	s.publishDeleted(ctx, removed)
	return EntryDeleted{Entry: e}, nil
}

func (s *LedgerService) preview(ctx context.Context, where query.Predicate) (DeleteOutcome, error) {
	matches, err := s.store.Find(ctx, query.Select{Where: where, OrderBy: query.NewestFirst})
	if err != nil {
		return nil, storeErr("preview delete", err)
	}
	if len(matches) == 0 {
		return NoMatch{}, nil
	}

	log.FromContext(ctx).InfoContext(ctx, "Bulk delete previewed", log.NewFields().
		WithOperation(log.OpPreview).
		WithCount(len(matches)).
		ToSlice()...)

	breakdown, err := core.Totals(matches)
	if err != nil {
		return nil, err
	}
	total, err := breakdown.TotalIncome.Add(breakdown.TotalExpense)
	if err != nil {
		return nil, err
	}
	sample := matches
	if len(sample) > s.opts.PreviewRows {
		sample = sample[:s.opts.PreviewRows]
	}

	return Preview{
		Count:     len(matches),
		Breakdown: breakdown,
		Total:     total,
		Sample:    sample,
	}, nil
}

// commit re-evaluates where against the live table in a single statement.
func (s *LedgerService) commit(ctx context.Context, where query.Predicate) (DeleteOutcome, error) {
	removed, err := s.store.Delete(ctx, where)
	if err != nil {
		return nil, storeErr("delete transactions", err)
	}
	if len(removed) == 0 {
		return NoMatch{}, nil
	}

	s.publishDeleted(ctx, removed)

	out := Committed{DeletedCount: len(removed), IDs: removed}
	if len(removed) > s.opts.ReportedIDs {
		out.IDs = removed[:s.opts.ReportedIDs]
		out.Truncated = true
	}

	log.FromContext(ctx).InfoContext(ctx, "Bulk delete committed", log.NewFields().
		WithOperation(log.OpDelete).
		WithCount(out.DeletedCount).
		ToSlice()...)
	return out, nil
}

func (s *LedgerService) publishDeleted(ctx context.Context, ids []int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntriesDeleted(ctx, ids); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entries deleted event", "count", len(ids), "error", err)
	}
}
