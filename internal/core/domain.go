// Package core holds the ledger's domain: entries, kinds, cent-exact money,
// timestamps, totals and chart buckets. It has no storage or transport
// dependencies.
package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	maxCategoryLen    = 100
	maxDescriptionLen = 500
)

type (
	// Kind tells whether an entry adds to or subtracts from the balance.
	Kind string

	// Entry is a single row of the ledger. Entries are never updated in place.
	Entry struct {
		ID          int64
		Kind        Kind
		Amount      Money
		Category    string
		Description string
		OccurredAt  time.Time
	}
)

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIncome:
		return KindIncome, nil
	case KindExpense:
		return KindExpense, nil
	}
	return "", &ValidationError{Field: "type", Reason: "must be 'income' or 'expense'"}
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// NormalizeCategory trims the label and folds it to Unicode NFC so that
// visually identical labels compare equal in filters.
func NormalizeCategory(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func (e Entry) Validate() error {
	if !e.Kind.Valid() {
		return &ValidationError{Field: "type", Reason: "must be 'income' or 'expense'"}
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Category == "" {
		return &ValidationError{Field: "category", Reason: "cannot be empty"}
	}
	if utf8.RuneCountInString(e.Category) > maxCategoryLen {
		return &ValidationError{Field: "category", Reason: "too long (max 100 characters)"}
	}
	if utf8.RuneCountInString(e.Description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Reason: "too long (max 500 characters)"}
	}
	if e.OccurredAt.IsZero() {
		return &ValidationError{Field: "date", Reason: "cannot be zero"}
	}
	return nil
}
