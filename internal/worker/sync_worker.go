package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/query"
	"ledger/internal/sheets"
)

// EntryReader is the part of the ledger store the worker reads from.
type EntryReader interface {
	Get(ctx context.Context, id int64) (core.Entry, error)
	Find(ctx context.Context, q query.Select) ([]core.Entry, error)
}

// SyncWorker keeps a mirror in step with the ledger by applying events.
type SyncWorker struct {
	entries EntryReader
	mirror  sheets.Mirror
}

func NewSyncWorker(entries EntryReader, mirror sheets.Mirror) *SyncWorker {
	return &SyncWorker{entries: entries, mirror: mirror}
}

// HandleEvent applies one ledger event to the mirror. A returned error
// asks the broker to redeliver.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.EntryEvent) error {
	switch event.Type {
	case amqp.EventEntryCreated:
		for _, id := range event.IDs {
			if err := w.mirrorEntry(ctx, id); err != nil {
				return err
			}
		}
		return nil
	case amqp.EventEntriesDeleted:
		return w.removeEntries(ctx, event.IDs)
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}

func (w *SyncWorker) mirrorEntry(ctx context.Context, id int64) error {
	e, err := w.entries.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before we got here; the delete event covers the mirror.
		slog.InfoContext(ctx, "Entry gone before mirroring, skipping", "entry_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load entry %d: %w", id, err)
	}

	if err := w.mirror.AppendEntry(ctx, e); err != nil {
		return fmt.Errorf("mirror entry %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Mirrored entry", log.NewFields().
		WithOperation(log.OpMirror).
		WithEntry(e.ID, string(e.Kind), e.Amount.Cents, e.Category).
		ToSlice()...)
	return nil
}

func (w *SyncWorker) removeEntries(ctx context.Context, ids []int64) error {
	n, err := w.mirror.DeleteEntries(ctx, ids)
	if err != nil {
		return fmt.Errorf("delete mirrored entries: %w", err)
	}
	slog.InfoContext(ctx, "Removed mirrored entries", "requested", len(ids), "removed", n)
	return nil
}

// StartupSyncCheck appends every stored entry the mirror may have missed
// while the worker was down. Appends are idempotent, so entries already
// mirrored are left alone.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	entries, err := w.entries.Find(ctx, query.Select{OrderBy: query.OldestFirst})
	if err != nil {
		return fmt.Errorf("list entries for startup sync: %w", err)
	}
	if len(entries) == 0 {
		slog.InfoContext(ctx, "No entries to mirror on startup")
		return nil
	}

	synced, failed := 0, 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.mirror.AppendEntry(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror entry during startup", "entry_id", e.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(entries),
		"synced", synced,
		"errors", failed)
	return nil
}
