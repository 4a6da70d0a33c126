package expenses

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"max.ks1230/expense-tracker/internal/config"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/model/customerr"
	"max.ks1230/expense-tracker/internal/model/reports"
	"max.ks1230/expense-tracker/internal/model/storage"
)

func testNow() time.Time {
	return time.Date(2025, time.January, 20, 10, 0, 0, 0, time.Local)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.DatabaseConfig{
		DriverName: config.DriverSQLite,
		FilePath:   filepath.Join(t.TempDir(), "expenses.db"),
	}
	db, err := storage.NewSQLStorage(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	generator := reports.NewGenerator(db).WithClock(testNow)
	return NewService(db, generator).WithClock(testNow)
}

func draft(amount, category string) expense.Draft {
	return expense.Draft{
		Amount:   expense.Some(decimal.RequireFromString(amount)),
		Category: expense.Some(category),
	}
}

func Test_OnCreateThenGet_ShouldReturnIdenticalValues(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	d := draft("42.42", "Entertainment")
	d.Date = expense.Some("2024-12-31")
	d.Description = expense.Some("  Concert tickets ")

	created, err := s.Create(ctx, d)
	require.NoError(t, err)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "42.42", got.Amount.StringFixed(2))
	assert.Equal(t, expense.Entertainment, got.Category)
	assert.Equal(t, "2024-12-31", got.Date.String())
	assert.Equal(t, "Concert tickets", got.Description)
}

func Test_OnCreateWithoutDate_ShouldUseToday(t *testing.T) {
	s := newTestService(t)

	created, err := s.Create(context.Background(), draft("1", "Other"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-20", created.Date.String())
}

func Test_OnInvalidCreate_ShouldNotTouchStorage(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	for _, d := range []expense.Draft{
		draft("0", "Food"),
		draft("-5", "Food"),
		draft("5", "Groceries"),
		{Amount: expense.Some(decimal.NewFromInt(5)), Category: expense.Some("Food"), Description: expense.Some(strings.Repeat("x", 201))},
		{Amount: expense.Some(decimal.NewFromInt(5)), Category: expense.Some("Food"), Date: expense.Some("2025-02-31")},
	} {
		_, err := s.Create(ctx, d)
		_, ok := customerr.AsValidation(err)
		assert.True(t, ok, "expected validation error, got %v", err)
	}

	list, err := s.List(ctx, expense.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func Test_OnPartialUpdate_ShouldKeepCategoryAndDate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	d := draft("10", "Utilities")
	d.Date = expense.Some("2025-01-05")
	created, err := s.Create(ctx, d)
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, expense.Draft{
		Amount:      expense.Some(decimal.RequireFromString("20.00")),
		Description: expense.Some("Updated"),
	})
	require.NoError(t, err)
	assert.Equal(t, "20.00", updated.Amount.StringFixed(2))
	assert.Equal(t, "Updated", updated.Description)
	assert.Equal(t, expense.Utilities, updated.Category)
	assert.Equal(t, "2025-01-05", updated.Date.String())
}

func Test_OnInvalidUpdate_ShouldRejectBeforeLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.Update(ctx, 12345, expense.Draft{Amount: expense.Some(decimal.NewFromInt(-1))})
	_, ok := customerr.AsValidation(err)
	assert.True(t, ok)

	_, err = s.Update(ctx, 12345, expense.Draft{Description: expense.Some("fine")})
	assert.True(t, customerr.IsNotFound(err))
}

func Test_OnDeletedExpense_ShouldBeTerminal(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	created, err := s.Create(ctx, draft("10", "Food"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.True(t, customerr.IsNotFound(s.Delete(ctx, created.ID)))

	_, err = s.Get(ctx, created.ID)
	assert.True(t, customerr.IsNotFound(err))
	_, err = s.Update(ctx, created.ID, expense.Draft{Description: expense.Some("zombie")})
	assert.True(t, customerr.IsNotFound(err))
}

func Test_OnConcurrentDoubleDelete_ShouldReportOneSuccess(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	created, err := s.Create(ctx, draft("10", "Food"))
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Delete(ctx, created.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, customerr.IsNotFound(err), "unexpected error %v", err)
	}
	assert.Equal(t, 1, successes)
}

func Test_OnStats_ShouldMatchCreatedExpenses(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	for _, amount := range []string{"100", "50", "25"} {
		_, err := s.Create(ctx, draft(amount, "Food"))
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "175.00", stats.TotalAllTime.StringFixed(2))
	assert.Equal(t, "175.00", stats.TotalThisMonth.StringFixed(2))
	assert.Equal(t, int64(3), stats.TransactionCount)
	require.NotNil(t, stats.HighestExpense)
	assert.Equal(t, "100.00", stats.HighestExpense.Amount.StringFixed(2))
	assert.Equal(t, "Jan 2025", stats.MonthlyTrend[5].Month)
	assert.Equal(t, "175.00", stats.MonthlyTrend[5].Total.StringFixed(2))
	assert.Equal(t, "Aug 2024", stats.MonthlyTrend[0].Month)
}

func Test_OnStats_ShouldGroupByCategory(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	for _, d := range []expense.Draft{draft("30", "Food"), draft("20", "Food"), draft("15", "Transport")} {
		_, err := s.Create(ctx, d)
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats.ByCategory, 2)
	assert.Equal(t, "50.00", stats.ByCategory[expense.Food].StringFixed(2))
	assert.Equal(t, "15.00", stats.ByCategory[expense.Transport].StringFixed(2))

	list, err := s.List(ctx, expense.Filter{Category: expense.Some("Transport")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, s.Delete(ctx, list[0].ID))

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.NotContains(t, stats.ByCategory, expense.Transport)
}

func Test_OnStatsOfOlderMonths_ShouldLeaveCurrentMonthEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	d := draft("12.345", "Health")
	d.Date = expense.Some("2024-11-30")
	_, err := s.Create(ctx, d)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.TotalThisMonth.IsZero())
	assert.Equal(t, "Nov 2024", stats.MonthlyTrend[3].Month)
	assert.Equal(t, "12.35", stats.MonthlyTrend[3].Total.StringFixed(2))
}

func Test_OnEmptyUpdate_ShouldReturnRecordUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	created, err := s.Create(ctx, draft("10", "Shopping"))
	require.NoError(t, err)

	got, err := s.Update(ctx, created.ID, expense.Draft{})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "10.00", got.Amount.StringFixed(2))
	assert.Equal(t, expense.Shopping, got.Category)

	_, err = s.Update(ctx, created.ID+100, expense.Draft{})
	assert.True(t, customerr.IsNotFound(err))
}

func Test_OnAmountBeyondFloatRange_ShouldRejectAndKeepReadsWorking(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.Create(ctx, draft("1e400", "Food"))
	_, ok := customerr.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)

	kept, err := s.Create(ctx, draft("1.7e308", "Food"))
	require.NoError(t, err)
	_, err = s.Create(ctx, draft("1.7e308", "Food"))
	require.NoError(t, err)

	_, err = s.Update(ctx, kept.ID, expense.Draft{Amount: expense.Some(decimal.RequireFromString("1e400"))})
	_, ok = customerr.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)

	list, err := s.List(ctx, expense.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("3.4e308").Equal(stats.TotalAllTime))
	assert.True(t, decimal.RequireFromString("3.4e308").Equal(stats.ByCategory[expense.Food]))
	require.NotNil(t, stats.HighestExpense)
	assert.Equal(t, kept.ID, stats.HighestExpense.ID)
}
