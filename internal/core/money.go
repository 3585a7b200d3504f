package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents caps a single amount (100 billion units) so that sums over
// any realistic table stay inside int64.
const MaxAmountCents int64 = 10_000_000_000_000

var hundred = decimal.NewFromInt(100)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// MoneyFromFloat converts a decimal amount to cents, rounding half-up on the
// third decimal place. Zero or negative results are rejected.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, &ValidationError{Field: "amount", Reason: "must be a finite number"}
	}
	return moneyFromDecimal(decimal.NewFromFloat(f))
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Signs are not:
// only positive amounts are valid.
//
//	ParseDecimalToCents("12.345") -> 1235 (half-up)
//	ParseDecimalToCents("12,34")  -> 1234
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, &ValidationError{Field: "amount", Reason: "must be a positive number"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Reason: "must be a positive number"}
	}
	m, err := moneyFromDecimal(d)
	if err != nil {
		return 0, err
	}
	return m.Cents, nil
}

func moneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() {
		return Money{}, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if cents.GreaterThan(decimal.NewFromInt(MaxAmountCents)) {
		return Money{}, &ValidationError{Field: "amount", Reason: "too large (max 100000000000.00)"}
	}
	return Money{Cents: cents.IntPart()}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if m.Cents > MaxAmountCents {
		return &ValidationError{Field: "amount", Reason: "too large (max 100000000000.00)"}
	}
	return nil
}

// Add returns m+o, or ErrAmountOverflow when the sum does not fit in int64.
func (m Money) Add(o Money) (Money, error) {
	sum := m.Cents + o.Cents
	if (o.Cents > 0 && sum < m.Cents) || (o.Cents < 0 && sum > m.Cents) {
		return Money{}, ErrAmountOverflow
	}
	return Money{Cents: sum}, nil
}

// Sub is only used on non-negative totals, which cannot overflow.
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Float returns the value as a float64 for chart series and JSON output.
// Use cents for arithmetic.
func (m Money) Float() float64 {
	f, _ := decimal.New(m.Cents, -2).Float64()
	return f
}

// String renders the amount with exactly two decimals, e.g. "1234.50".
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}
