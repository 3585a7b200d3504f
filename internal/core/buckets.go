package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	GroupByDay      GroupBy = "day"
	GroupByWeek     GroupBy = "week"
	GroupByMonth    GroupBy = "month"
	GroupByCategory GroupBy = "category"
)

// GroupBy selects how entries are bucketed for charts.
type GroupBy string

// ParseGroupBy returns GroupByMonth for an empty string.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GroupByMonth, nil
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByCategory:
		return g, nil
	}
	return "", fmt.Errorf("%w %q: must be one of day, week, month, category", ErrInvalidGroupBy, s)
}

// Series is an ordered list of bucket labels with parallel income and
// expense sums.
type Series struct {
	Labels  []string
	Income  []Money
	Expense []Money
}

// BucketKey returns the label of the bucket holding t.
//
// Weeks are counted inside the month as floor(day/7)+1, so a month has up
// to five of them and numbering restarts on the 1st. This is not ISO week
// numbering and must not be changed without migrating existing charts.
func BucketKey(t time.Time, g GroupBy) string {
	t = t.UTC()
	switch g {
	case GroupByDay:
		return t.Format("2006-01-02")
	case GroupByWeek:
		return fmt.Sprintf("%04d-%02d-W%d", t.Year(), int(t.Month()), t.Day()/7+1)
	default:
		return t.Format("2006-01")
	}
}

type bucket struct {
	income  Money
	expense Money
}

// Bucket groups entries, which must be in ascending time order, by g.
// Category buckets keep first-seen order; time buckets are sorted by label.
func Bucket(entries []Entry, g GroupBy) (Series, error) {
	sums := make(map[string]*bucket)
	order := make([]string, 0)

	for _, e := range entries {
		key := e.Category
		if g != GroupByCategory {
			key = BucketKey(e.OccurredAt, g)
		}
		b, ok := sums[key]
		if !ok {
			b = &bucket{}
			sums[key] = b
			order = append(order, key)
		}
		var err error
		if e.Kind == KindIncome {
			b.income, err = b.income.Add(e.Amount)
		} else {
			b.expense, err = b.expense.Add(e.Amount)
		}
		if err != nil {
			return Series{}, err
		}
	}

	if g != GroupByCategory {
		sort.Strings(order)
	}

	s := Series{
		Labels:  order,
		Income:  make([]Money, len(order)),
		Expense: make([]Money, len(order)),
	}
	for i, key := range order {
		s.Income[i] = sums[key].income
		s.Expense[i] = sums[key].expense
	}
	return s, nil
}
