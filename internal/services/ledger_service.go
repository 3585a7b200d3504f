package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/query"
)

const (
	DefaultListLimit   = 50
	MaxListLimit       = 1000
	DefaultPreviewRows = 10
	DefaultReportedIDs = 20
)

// Store is the persistence the ledger needs. Each method is one statement.
type Store interface {
	Insert(ctx context.Context, e core.Entry) (int64, error)
	Get(ctx context.Context, id int64) (core.Entry, error)
	Find(ctx context.Context, q query.Select) ([]core.Entry, error)
	Delete(ctx context.Context, where query.Predicate) ([]int64, error)
	Totals(ctx context.Context) (core.Summary, error)
}

// EventPublisher announces ledger changes to downstream consumers.
type EventPublisher interface {
	PublishEntryCreated(ctx context.Context, id int64) error
	PublishEntriesDeleted(ctx context.Context, ids []int64) error
}

// Options tunes list and delete reporting.
type Options struct {
	// ListLimit is used when a list request carries no limit.
	ListLimit int

	// PreviewRows is how many matching rows a delete preview shows.
	PreviewRows int

	// ReportedIDs caps the ids listed after a committed bulk delete.
	ReportedIDs int
}

func DefaultOptions() Options {
	return Options{
		ListLimit:   DefaultListLimit,
		PreviewRows: DefaultPreviewRows,
		ReportedIDs: DefaultReportedIDs,
	}
}

// LedgerService implements the ledger operations on top of a Store.
type LedgerService struct {
	store     Store
	publisher EventPublisher
	opts      Options
	now       func() time.Time
}

// NewLedgerService wires the service. publisher may be nil, in which case no
// events are emitted.
func NewLedgerService(store Store, publisher EventPublisher, opts Options) *LedgerService {
	def := DefaultOptions()
	if opts.ListLimit <= 0 {
		opts.ListLimit = def.ListLimit
	}
	if opts.ListLimit > MaxListLimit {
		opts.ListLimit = MaxListLimit
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = def.PreviewRows
	}
	if opts.ReportedIDs <= 0 {
		opts.ReportedIDs = def.ReportedIDs
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
	}
}

// AddRequest carries raw add_transaction input. Date may be empty.
// AmountText, when set, is the amount as the client typed it ("12,50") and
// takes precedence over Amount.
type AddRequest struct {
	Type        string
	Amount      float64
	AmountText  string
	Category    string
	Description string
	Date        string
}

// Add validates the request, stores it and returns the stored entry.
func (s *LedgerService) Add(ctx context.Context, req AddRequest) (core.Entry, error) {
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return core.Entry{}, err
	}
	amount, err := requestAmount(req)
	if err != nil {
		return core.Entry{}, err
	}

	occurredAt := s.now().UTC().Truncate(time.Millisecond)
	if req.Date != "" {
		if occurredAt, err = core.ParseTimestamp(req.Date); err != nil {
			return core.Entry{}, err
		}
	}

	e := core.Entry{
		Kind:        kind,
		Amount:      amount,
		Category:    core.NormalizeCategory(req.Category),
		Description: req.Description,
		OccurredAt:  occurredAt,
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	id, err := s.store.Insert(ctx, e)
	if err != nil {
		return core.Entry{}, storeErr("add transaction", err)
	}
	e.ID = id
	log.FromContext(ctx).InfoContext(ctx, "Transaction added", log.NewFields().
		WithOperation(log.OpCreate).
		WithEntry(e.ID, string(e.Kind), e.Amount.Cents, e.Category).
		ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishEntryCreated(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish entry created event", "id", id, "error", err)
		}
	}

	return e, nil
}

// Get returns one entry or core.ErrNotFound.
func (s *LedgerService) Get(ctx context.Context, id int64) (core.Entry, error) {
	if id <= 0 {
		return core.Entry{}, &core.ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Entry{}, storeErr("get transaction", err)
	}
	return e, nil
}

// ListRequest carries optional list filters. A nil Limit means the default.
type ListRequest struct {
	Criteria
	Limit *int
}

// List returns matching entries, newest first.
func (s *LedgerService) List(ctx context.Context, req ListRequest) ([]core.Entry, error) {
	limit := s.opts.ListLimit
	if req.Limit != nil {
		limit = *req.Limit
		if limit <= 0 {
			return nil, &core.ValidationError{Field: "limit", Reason: "must be a positive integer"}
		}
		limit = min(limit, MaxListLimit)
	}

	filter, err := req.Criteria.Filter()
	if err != nil {
		return nil, err
	}

	entries, err := s.store.Find(ctx, query.Select{
		Where:   filter.Predicate(),
		OrderBy: query.NewestFirst,
		Limit:   limit,
	})
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return entries, nil
}

// Summary totals the whole ledger.
func (s *LedgerService) Summary(ctx context.Context) (core.Summary, error) {
	sum, err := s.store.Totals(ctx)
	if err != nil {
		return core.Summary{}, storeErr("summarize transactions", err)
	}
	return sum, nil
}

func requestAmount(req AddRequest) (core.Money, error) {
	if req.AmountText == "" {
		return core.MoneyFromFloat(req.Amount)
	}
	cents, err := core.ParseDecimalToCents(req.AmountText)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// storeErr tags err as a storage failure unless it is a domain outcome the
// caller should see as is.
func storeErr(op string, err error) error {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrAmountOverflow) || core.IsValidation(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorage, err)
}
