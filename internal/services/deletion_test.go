package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/query"
	"ledger/internal/storage"
)

func countRows(t *testing.T, repo *storage.SQLiteRepository) int {
	t.Helper()
	rows, err := repo.Find(context.Background(), query.Select{})
	require.NoError(t, err)
	return len(rows)
}

func TestDelete_NoCriteria(t *testing.T) {
	svc := NewLedgerService(failingStore{err: errors.New("unreachable")}, nil, DefaultOptions())

	_, err := svc.Delete(context.Background(), DeleteRequest{})
	assert.ErrorIs(t, err, core.ErrNoCriteria)

	_, err = svc.Delete(context.Background(), DeleteRequest{ConfirmBulk: true})
	assert.ErrorIs(t, err, core.ErrNoCriteria, "confirmation alone is not a criterion")

	_, err = svc.Delete(context.Background(), DeleteRequest{Criteria: Criteria{Category: "  "}})
	assert.ErrorIs(t, err, core.ErrNoCriteria, "a blank category is absent")
}

func TestDelete_Validation(t *testing.T) {
	svc := NewLedgerService(failingStore{err: errors.New("unreachable")}, nil, DefaultOptions())
	ctx := context.Background()

	zero := int64(0)
	_, err := svc.Delete(ctx, DeleteRequest{ID: &zero})
	assert.True(t, core.IsValidation(err))

	_, err = svc.Delete(ctx, DeleteRequest{IDs: []int64{1, -2}})
	assert.True(t, core.IsValidation(err))

	_, err = svc.Delete(ctx, DeleteRequest{OlderThan: "last week"})
	assert.True(t, core.IsValidation(err))

	_, err = svc.Delete(ctx, DeleteRequest{Criteria: Criteria{Type: "both"}})
	assert.True(t, core.IsValidation(err))
}

func TestDelete_SingleID(t *testing.T) {
	svc, repo, pub := newTestService(t, DefaultOptions())
	ctx := context.Background()
	salary, food := seedScenario(t, svc)

	out, err := svc.Delete(ctx, DeleteRequest{ID: &food.ID})
	require.NoError(t, err)
	require.IsType(t, EntryDeleted{}, out)
	assert.Equal(t, food, out.(EntryDeleted).Entry)
	assert.Equal(t, 1, countRows(t, repo))
	assert.Equal(t, [][]int64{{food.ID}}, pub.deleted)

	out, err = svc.Delete(ctx, DeleteRequest{ID: &food.ID})
	require.NoError(t, err)
	assert.Equal(t, EntryNotFound{ID: food.ID}, out)

	_, err = svc.Get(ctx, salary.ID)
	assert.NoError(t, err)
}

func TestDelete_IDWithOtherCriteriaIsPreviewed(t *testing.T) {
	svc, repo, _ := newTestService(t, DefaultOptions())
	_, food := seedScenario(t, svc)

	out, err := svc.Delete(context.Background(), DeleteRequest{ID: &food.ID, Criteria: Criteria{Type: "expense"}})
	require.NoError(t, err)
	require.IsType(t, Preview{}, out)
	assert.Equal(t, 1, out.(Preview).Count)
	assert.Equal(t, 2, countRows(t, repo))
}

func TestDelete_CategoryScenario(t *testing.T) {
	svc, repo, pub := newTestService(t, DefaultOptions())
	ctx := context.Background()
	salary, food := seedScenario(t, svc)

	req := DeleteRequest{Criteria: Criteria{Category: "food"}}

	out, err := svc.Delete(ctx, req)
	require.NoError(t, err)
	require.IsType(t, Preview{}, out)
	preview := out.(Preview)
	assert.Equal(t, 1, preview.Count)
	assert.Equal(t, 1, preview.Breakdown.ExpenseCount)
	assert.Equal(t, 0, preview.Breakdown.IncomeCount)
	assert.Equal(t, int64(4000), preview.Total.Cents)
	assert.Equal(t, []core.Entry{food}, preview.Sample)
	assert.Equal(t, 2, countRows(t, repo), "preview deletes nothing")
	assert.Empty(t, pub.deleted)

	req.ConfirmBulk = true
	out, err = svc.Delete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, Committed{DeletedCount: 1, IDs: []int64{food.ID}}, out)

	_, err = svc.Get(ctx, food.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.Get(ctx, salary.ID)
	assert.NoError(t, err)
	assert.Equal(t, [][]int64{{food.ID}}, pub.deleted)
}

func TestDelete_PreviewIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService(t, DefaultOptions())
	ctx := context.Background()
	salary, food := seedScenario(t, svc)

	requests := []DeleteRequest{
		{IDs: []int64{salary.ID, food.ID}},
		{Criteria: Criteria{Type: "income"}},
		{OlderThan: "2024-12-31"},
		{Criteria: Criteria{DateFrom: "2024-01-01", DateTo: "2024-01-31"}},
	}

	for _, req := range requests {
		var first DeleteOutcome
		for i := 0; i < 3; i++ {
			out, err := svc.Delete(ctx, req)
			require.NoError(t, err)
			require.IsType(t, Preview{}, out)
			if first == nil {
				first = out
			}
			assert.Equal(t, first, out)
			assert.Equal(t, 2, countRows(t, repo))
		}
	}
}

func TestDelete_NoMatchSkipsConfirmation(t *testing.T) {
	svc, repo, pub := newTestService(t, DefaultOptions())
	ctx := context.Background()
	seedScenario(t, svc)

	for _, confirm := range []bool{false, true} {
		out, err := svc.Delete(ctx, DeleteRequest{Criteria: Criteria{Category: "travel"}, ConfirmBulk: confirm})
		require.NoError(t, err)
		assert.Equal(t, NoMatch{}, out)
	}

	out, err := svc.Delete(ctx, DeleteRequest{IDs: []int64{999}})
	require.NoError(t, err)
	assert.Equal(t, NoMatch{}, out)

	assert.Equal(t, 2, countRows(t, repo))
	assert.Empty(t, pub.deleted)
}

func TestDelete_OlderThanIsStrict(t *testing.T) {
	svc, _, _ := newTestService(t, DefaultOptions())
	ctx := context.Background()
	salary, _ := seedScenario(t, svc)

	out, err := svc.Delete(ctx, DeleteRequest{OlderThan: "2024-01-10", ConfirmBulk: true})
	require.NoError(t, err)
	assert.Equal(t, Committed{DeletedCount: 1, IDs: []int64{salary.ID}}, out)
}

func TestDelete_CommitUsesLivePredicate(t *testing.T) {
	svc, _, _ := newTestService(t, DefaultOptions())
	ctx := context.Background()
	seedScenario(t, svc)

	req := DeleteRequest{Criteria: Criteria{Category: "food"}}
	out, err := svc.Delete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, out.(Preview).Count)

	late, err := svc.Add(ctx, AddRequest{Type: "expense", Amount: 7, Category: "food", Date: "2024-01-20"})
	require.NoError(t, err)

	req.ConfirmBulk = true
	out, err = svc.Delete(ctx, req)
	require.NoError(t, err)
	committed := out.(Committed)
	assert.Equal(t, 2, committed.DeletedCount, "rows added after the preview are included")
	assert.Contains(t, committed.IDs, late.ID)
}

func TestDelete_TruncatesReport(t *testing.T) {
	svc, repo, pub := newTestService(t, Options{PreviewRows: 3, ReportedIDs: 5})
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.Add(ctx, AddRequest{
			Type:     "expense",
			Amount:   1,
			Category: "bulk",
			Date:     fmt.Sprintf("2024-05-%02d", i+1),
		})
		require.NoError(t, err)
	}

	out, err := svc.Delete(ctx, DeleteRequest{Criteria: Criteria{Category: "bulk"}})
	require.NoError(t, err)
	preview := out.(Preview)
	assert.Equal(t, 12, preview.Count)
	require.Len(t, preview.Sample, 3)
	assert.Equal(t, "2024-05-12", preview.Sample[0].OccurredAt.Format("2006-01-02"), "sample is newest first")

	out, err = svc.Delete(ctx, DeleteRequest{Criteria: Criteria{Category: "bulk"}, ConfirmBulk: true})
	require.NoError(t, err)
	committed := out.(Committed)
	assert.Equal(t, 12, committed.DeletedCount)
	assert.Len(t, committed.IDs, 5)
	assert.True(t, committed.Truncated)
	assert.Equal(t, 0, countRows(t, repo))
	require.Len(t, pub.deleted, 1)
	assert.Len(t, pub.deleted[0], 12, "events carry every removed id")
}
