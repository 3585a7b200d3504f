package core

// Summary holds whole-set totals.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
	IncomeCount  int
	ExpenseCount int
}

// Count returns the number of entries that contributed to the summary.
func (s Summary) Count() int {
	return s.IncomeCount + s.ExpenseCount
}

// Totals sums entries by kind. Balance is always income minus expense.
func Totals(entries []Entry) (Summary, error) {
	var s Summary
	var err error
	for _, e := range entries {
		if e.Kind == KindIncome {
			s.TotalIncome, err = s.TotalIncome.Add(e.Amount)
			s.IncomeCount++
		} else {
			s.TotalExpense, err = s.TotalExpense.Add(e.Amount)
			s.ExpenseCount++
		}
		if err != nil {
			return Summary{}, err
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s, nil
}
