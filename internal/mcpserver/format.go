package mcpserver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/services"
)

func formatEntry(e core.Entry) string {
	line := fmt.Sprintf("#%d  %s  %-7s  %10s  %s",
		e.ID, core.FormatTimestamp(e.OccurredAt), e.Kind, e.Amount, e.Category)
	if e.Description != "" {
		line += "  (" + e.Description + ")"
	}
	return line
}

func formatEntries(b *strings.Builder, entries []core.Entry) {
	for _, e := range entries {
		b.WriteString(formatEntry(e))
		b.WriteByte('\n')
	}
}

func formatAdded(e core.Entry) string {
	return fmt.Sprintf("Transaction added with id %d: %s %s in %q on %s",
		e.ID, e.Kind, e.Amount, e.Category, core.FormatTimestamp(e.OccurredAt))
}

func formatList(entries []core.Entry) string {
	if len(entries) == 0 {
		return "No transactions found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d transaction(s):\n", len(entries))
	formatEntries(&b, entries)
	return strings.TrimRight(b.String(), "\n")
}

func formatSummary(s core.Summary) string {
	return fmt.Sprintf("Total income: %s\nTotal expense: %s\nBalance: %s\nTransactions: %d (%d income, %d expense)",
		s.TotalIncome, s.TotalExpense, s.Balance, s.Count(), s.IncomeCount, s.ExpenseCount)
}

func formatDeleteOutcome(out services.DeleteOutcome) string {
	switch o := out.(type) {
	case services.EntryNotFound:
		return fmt.Sprintf("Transaction %d not found.", o.ID)

	case services.EntryDeleted:
		return "Deleted transaction:\n" + formatEntry(o.Entry)

	case services.NoMatch:
		return "No transactions match the given criteria. Nothing to delete."

	case services.Preview:
		var b strings.Builder
		fmt.Fprintf(&b, "%d transaction(s) match. 0 deleted.\n", o.Count)
		fmt.Fprintf(&b, "Income: %d totalling %s\n", o.Breakdown.IncomeCount, o.Breakdown.TotalIncome)
		fmt.Fprintf(&b, "Expense: %d totalling %s\n", o.Breakdown.ExpenseCount, o.Breakdown.TotalExpense)
		fmt.Fprintf(&b, "Total amount: %s\n", o.Total)
		if len(o.Sample) < o.Count {
			fmt.Fprintf(&b, "\nFirst %d of %d:\n", len(o.Sample), o.Count)
		} else {
			b.WriteString("\nMatching transactions:\n")
		}
		formatEntries(&b, o.Sample)
		b.WriteString("\nCall delete_transaction again with the same criteria and confirm_bulk=true to delete them.")
		return b.String()

	case services.Committed:
		ids := make([]string, len(o.IDs))
		for i, id := range o.IDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		text := fmt.Sprintf("Deleted %d transaction(s). IDs: %s", o.DeletedCount, strings.Join(ids, ", "))
		if o.Truncated {
			text += fmt.Sprintf(" (first %d shown)", len(o.IDs))
		}
		return text
	}
	return fmt.Sprintf("unexpected delete outcome %T", out)
}

type chartJSON struct {
	ChartType string    `json:"chart_type"`
	GroupBy   string    `json:"group_by"`
	Labels    []string  `json:"labels"`
	Income    []float64 `json:"incomeData"`
	Expense   []float64 `json:"expenseData"`
}

func chartPayload(c services.Chart) ([]byte, error) {
	return json.Marshal(chartJSON{
		ChartType: string(c.Type),
		GroupBy:   string(c.GroupBy),
		Labels:    c.Labels,
		Income:    floats(c.Income),
		Expense:   floats(c.Expense),
	})
}

func floats(ms []core.Money) []float64 {
	out := make([]float64, len(ms))
	for i, m := range ms {
		out[i] = m.Float()
	}
	return out
}

type entryJSON struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date"`
}

type exportMetadataJSON struct {
	Count        int      `json:"count"`
	IncomeCount  int      `json:"income_count"`
	ExpenseCount int      `json:"expense_count"`
	TotalIncome  float64  `json:"total_income"`
	TotalExpense float64  `json:"total_expense"`
	Balance      float64  `json:"balance"`
	Categories   []string `json:"categories"`
	Earliest     *string  `json:"earliest"`
	Latest       *string  `json:"latest"`
	ExportedAt   string   `json:"exported_at"`
}

type exportJSON struct {
	Transactions []entryJSON        `json:"transactions"`
	Metadata     exportMetadataJSON `json:"metadata"`
}

// ExportJSON renders an export as indented JSON.
func ExportJSON(x services.Export) ([]byte, error) {
	rows := make([]entryJSON, len(x.Entries))
	for i, e := range x.Entries {
		rows[i] = entryJSON{
			ID:          e.ID,
			Type:        string(e.Kind),
			Amount:      e.Amount.Float(),
			Category:    e.Category,
			Description: e.Description,
			Date:        core.FormatTimestamp(e.OccurredAt),
		}
	}

	return json.MarshalIndent(exportJSON{
		Transactions: rows,
		Metadata: exportMetadataJSON{
			Count:        x.Summary.Count(),
			IncomeCount:  x.Summary.IncomeCount,
			ExpenseCount: x.Summary.ExpenseCount,
			TotalIncome:  x.Summary.TotalIncome.Float(),
			TotalExpense: x.Summary.TotalExpense.Float(),
			Balance:      x.Summary.Balance.Float(),
			Categories:   x.Categories,
			Earliest:     optTimestamp(x.Earliest),
			Latest:       optTimestamp(x.Latest),
			ExportedAt:   core.FormatTimestamp(x.ExportedAt),
		},
	}, "", "  ")
}

func optTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := core.FormatTimestamp(*t)
	return &s
}
