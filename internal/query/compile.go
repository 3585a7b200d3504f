package query

import (
	"errors"
	"fmt"
	"strings"
)

// Table is the only table this package addresses.
const Table = "transactions"

// EntryColumns is the column list scanned into core.Entry, in scan order.
const EntryColumns = "id, type, amount_cents, category, description, occurred_at"

var (
	ErrUnboundedDelete = errors.New("refusing to compile DELETE without a predicate")
	ErrUnknownColumn   = errors.New("unknown column")
)

// Compile converts p to a WHERE fragment and its bound arguments.
// A nil predicate compiles to "1 = 1".
func Compile(p Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case Eq:
		return compileComparison(pred.Column, "=", pred.Value)
	case Gte:
		return compileComparison(pred.Column, ">=", pred.Value)
	case Lte:
		return compileComparison(pred.Column, "<=", pred.Value)
	case Lt:
		return compileComparison(pred.Column, "<", pred.Value)
	case In:
		return compileIn(pred)
	case And:
		return compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// CompileSelect renders a full SELECT of EntryColumns.
func CompileSelect(q Select) (string, []any, error) {
	where, args, err := Compile(q.Where)
	if err != nil {
		return "", nil, fmt.Errorf("compile where: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s", EntryColumns, Table, where)

	if len(q.OrderBy) > 0 {
		terms := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			if err := checkColumn(o.Column); err != nil {
				return "", nil, err
			}
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			terms = append(terms, o.Column+" "+dir)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(terms, ", "))
	}

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	return b.String(), args, nil
}

// CompileDelete renders a DELETE that returns the ids it removed.
func CompileDelete(q Delete) (string, []any, error) {
	if isUnbounded(q.Where) {
		return "", nil, ErrUnboundedDelete
	}
	where, args, err := Compile(q.Where)
	if err != nil {
		return "", nil, fmt.Errorf("compile where: %w", err)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s RETURNING id", Table, where), args, nil
}

func isUnbounded(p Predicate) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case And:
		for _, child := range pred.Predicates {
			if !isUnbounded(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func compileComparison(column, op string, value any) (string, []any, error) {
	if err := checkColumn(column); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s %s ?", column, op), []any{value}, nil
}

func compileIn(in In) (string, []any, error) {
	if err := checkColumn(in.Column); err != nil {
		return "", nil, err
	}
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(in.Values)), ", ")
	args := make([]any, len(in.Values))
	copy(args, in.Values)
	return fmt.Sprintf("%s IN (%s)", in.Column, placeholders), args, nil
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var args []any
	for _, p := range and.Predicates {
		sql, params, err := Compile(p)
		if err != nil {
			return "", nil, err
		}
		if len(and.Predicates) > 1 {
			if _, nested := p.(And); nested {
				sql = "(" + sql + ")"
			}
		}
		parts = append(parts, sql)
		args = append(args, params...)
	}
	return strings.Join(parts, " AND "), args, nil
}

func checkColumn(column string) error {
	if _, ok := allowedColumns[column]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	return nil
}
