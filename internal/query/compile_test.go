package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func TestCompile_Nil(t *testing.T) {
	sql, args, err := Compile(nil)
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", sql)
	assert.Empty(t, args)
}

func TestCompile_Comparisons(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		sql  string
	}{
		{"eq", Eq{Column: ColCategory, Value: "food"}, "category = ?"},
		{"gte", Gte{Column: ColOccurredAt, Value: "x"}, "occurred_at >= ?"},
		{"lte", Lte{Column: ColOccurredAt, Value: "x"}, "occurred_at <= ?"},
		{"lt", Lt{Column: ColOccurredAt, Value: "x"}, "occurred_at < ?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := Compile(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Len(t, args, 1)
		})
	}
}

func TestCompile_ValuesAreNeverInterpolated(t *testing.T) {
	sql, args, err := Compile(Eq{Column: ColCategory, Value: "x'; DROP TABLE transactions; --"})
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"x'; DROP TABLE transactions; --"}, args)
}

func TestCompile_UnknownColumn(t *testing.T) {
	_, _, err := Compile(Eq{Column: "1=1; --", Value: 1})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, _, err = CompileSelect(Select{OrderBy: []Order{{Column: "random()"}}})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestCompile_In(t *testing.T) {
	sql, args, err := Compile(In{Column: ColID, Values: []any{int64(1), int64(2), int64(3)}})
	require.NoError(t, err)
	assert.Equal(t, "id IN (?, ?, ?)", sql)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, args)

	sql, args, err = Compile(In{Column: ColID})
	require.NoError(t, err)
	assert.Equal(t, "1 = 0", sql)
	assert.Empty(t, args)
}

func TestCompile_And(t *testing.T) {
	sql, args, err := Compile(And{Predicates: []Predicate{
		Eq{Column: ColType, Value: "expense"},
		And{Predicates: []Predicate{
			Gte{Column: ColOccurredAt, Value: "a"},
			Lte{Column: ColOccurredAt, Value: "b"},
		}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "type = ? AND (occurred_at >= ? AND occurred_at <= ?)", sql)
	assert.Equal(t, []any{"expense", "a", "b"}, args)
}

func TestCompileSelect(t *testing.T) {
	sql, args, err := CompileSelect(Select{
		Where:   Eq{Column: ColType, Value: "income"},
		OrderBy: NewestFirst,
		Limit:   10,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, type, amount_cents, category, description, occurred_at FROM transactions WHERE type = ? ORDER BY occurred_at DESC, id DESC LIMIT ?",
		sql)
	assert.Equal(t, []any{"income", 10}, args)
}

func TestCompileDelete(t *testing.T) {
	sql, args, err := CompileDelete(Delete{Where: Eq{Column: ColCategory, Value: "food"}})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM transactions WHERE category = ? RETURNING id", sql)
	assert.Equal(t, []any{"food"}, args)

	for _, where := range []Predicate{nil, And{}, And{Predicates: []Predicate{And{}}}} {
		_, _, err := CompileDelete(Delete{Where: where})
		assert.ErrorIs(t, err, ErrUnboundedDelete)
	}
}

func TestFilter_Predicate(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 999e6, time.UTC)
	id := int64(7)

	t.Run("empty filter has no predicate", func(t *testing.T) {
		f := Filter{}
		assert.True(t, f.IsEmpty())
		assert.Nil(t, f.Predicate())
	})

	t.Run("single field is not wrapped", func(t *testing.T) {
		f := Filter{Category: "food"}
		assert.Equal(t, Eq{Column: ColCategory, Value: "food"}, f.Predicate())
	})

	t.Run("fields are conjoined with bound timestamps", func(t *testing.T) {
		f := Filter{Kind: core.KindExpense, Category: "food", DateFrom: &from, DateTo: &to, OlderThan: &to}
		sql, args, err := Compile(f.Predicate())
		require.NoError(t, err)
		assert.Equal(t, "type = ? AND category = ? AND occurred_at >= ? AND occurred_at <= ? AND occurred_at < ?", sql)
		assert.Equal(t, []any{"expense", "food", "2024-01-01T00:00:00.000Z", "2024-01-31T23:59:59.999Z", "2024-01-31T23:59:59.999Z"}, args)
	})

	t.Run("id set short-circuits other criteria", func(t *testing.T) {
		f := Filter{IDs: []int64{3, 4}, Category: "food", ID: &id}
		sql, args, err := Compile(f.Predicate())
		require.NoError(t, err)
		assert.Equal(t, "id IN (?, ?)", sql)
		assert.Equal(t, []any{int64(3), int64(4)}, args)
	})

	t.Run("only id", func(t *testing.T) {
		assert.True(t, Filter{ID: &id}.OnlyID())
		assert.False(t, Filter{ID: &id, Category: "food"}.OnlyID())
		assert.False(t, Filter{Category: "food"}.OnlyID())
	})
}
