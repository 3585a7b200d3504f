package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/query"
)

const (
	ChartBar  ChartType = "bar"
	ChartPie  ChartType = "pie"
	ChartLine ChartType = "line"
)

// ChartType is a rendering hint passed through to the client.
type ChartType string

// ParseChartType returns ChartBar for an empty string.
func ParseChartType(s string) (ChartType, error) {
	switch c := ChartType(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ChartBar, nil
	case ChartBar, ChartPie, ChartLine:
		return c, nil
	}
	return "", fmt.Errorf("%w %q: must be one of bar, pie, line", core.ErrInvalidChartType, s)
}

// VisualizeRequest selects chart shape, grouping and optional filters.
type VisualizeRequest struct {
	Criteria
	ChartType string
	GroupBy   string
}

// Chart is the bucketed series ready for a client-side renderer.
type Chart struct {
	Type    ChartType
	GroupBy core.GroupBy
	core.Series
}

// Visualize buckets the matching entries in ascending time order.
func (s *LedgerService) Visualize(ctx context.Context, req VisualizeRequest) (Chart, error) {
	chartType, err := ParseChartType(req.ChartType)
	if err != nil {
		return Chart{}, err
	}
	groupBy, err := core.ParseGroupBy(req.GroupBy)
	if err != nil {
		return Chart{}, err
	}
	filter, err := req.Criteria.Filter()
	if err != nil {
		return Chart{}, err
	}

	entries, err := s.store.Find(ctx, query.Select{
		Where:   filter.Predicate(),
		OrderBy: query.OldestFirst,
	})
	if err != nil {
		return Chart{}, storeErr("load transactions for chart", err)
	}
	series, err := core.Bucket(entries, groupBy)
	if err != nil {
		return Chart{}, err
	}

	return Chart{
		Type:    chartType,
		GroupBy: groupBy,
		Series:  series,
	}, nil
}

// Export is every stored row plus derived metadata.
type Export struct {
	Entries    []core.Entry
	Summary    core.Summary
	Categories []string
	Earliest   *time.Time
	Latest     *time.Time
	ExportedAt time.Time
}

// Export reads the whole ledger, oldest first.
func (s *LedgerService) Export(ctx context.Context) (Export, error) {
	entries, err := s.store.Find(ctx, query.Select{OrderBy: query.OldestFirst})
	if err != nil {
		return Export{}, storeErr("export transactions", err)
	}
	summary, err := core.Totals(entries)
	if err != nil {
		return Export{}, err
	}

	out := Export{
		Entries:    entries,
		Summary:    summary,
		Categories: make([]string, 0),
		ExportedAt: s.now().UTC(),
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if !seen[e.Category] {
			seen[e.Category] = true
			out.Categories = append(out.Categories, e.Category)
		}
	}
	slices.Sort(out.Categories)

	if len(entries) > 0 {
		earliest := entries[0].OccurredAt
		latest := entries[len(entries)-1].OccurredAt
		out.Earliest, out.Latest = &earliest, &latest
	}

	return out, nil
}
