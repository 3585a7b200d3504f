package memory

import (
	"context"
	"sync"

	"ledger/internal/core"
	"ledger/internal/sheets"
)

var _ sheets.Mirror = (*Store)(nil)

// Store is an in-process mirror for development and tests.
type Store struct {
	mu   sync.Mutex
	rows [][]any
	ids  []int64
}

func New() *Store {
	return &Store{}
}

// AppendEntry stores the row, ignoring ids already mirrored.
func (s *Store) AppendEntry(_ context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.ids {
		if id == e.ID {
			return nil
		}
	}
	s.ids = append(s.ids, e.ID)
	s.rows = append(s.rows, sheets.EntryRow(e))
	return nil
}

// DeleteEntries drops the rows for ids. Unknown ids are ignored.
func (s *Store) DeleteEntries(_ context.Context, ids []int64) (int, error) {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keptIDs := s.ids[:0]
	keptRows := s.rows[:0]
	removed := 0
	for i, id := range s.ids {
		if drop[id] {
			removed++
			continue
		}
		keptIDs = append(keptIDs, id)
		keptRows = append(keptRows, s.rows[i])
	}
	s.ids, s.rows = keptIDs, keptRows
	return removed, nil
}

// Rows returns a copy of the mirrored rows in append order.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}

// IDs returns the mirrored ids in append order.
func (s *Store) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.ids...)
}
