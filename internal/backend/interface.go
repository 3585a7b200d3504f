package backend

import (
	"context"

	"ledger/internal/config"
	"ledger/internal/sheets"
)

// MirrorResult contains the mirror instance. Neither mirror holds resources
// that outlive the process, so there is nothing to close.
type MirrorResult struct {
	Mirror sheets.Mirror
}

// Factory creates mirrors based on configuration
type Factory interface {
	CreateMirror(ctx context.Context, config Config) (*MirrorResult, error)
}

// Config holds configuration for mirror creation
type Config struct {
	Type MirrorType

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// MirrorType names a mirror implementation.
type MirrorType string

const (
	SheetsMirror MirrorType = config.MirrorSheets
	MemoryMirror MirrorType = config.MirrorMemory
)

func (mt MirrorType) String() string {
	return string(mt)
}

func (mt MirrorType) IsValid() bool {
	switch mt {
	case SheetsMirror, MemoryMirror:
		return true
	default:
		return false
	}
}
