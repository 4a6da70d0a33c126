package reports

import (
	"context"
	"time"

	"github.com/jinzhu/now"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/customerr"
)

const (
	trendMonths = 6
	monthLayout = "Jan 2006"
	// amounts are rounded half away from zero
	roundPlaces = 2
)

type expensesStorage interface {
	TotalAmount(ctx context.Context) (decimal.Decimal, error)
	TotalAmountBetween(ctx context.Context, from, to expense.Date) (decimal.Decimal, error)
	CountExpenses(ctx context.Context) (int64, error)
	HighestExpense(ctx context.Context) (expense.Expense, error)
	CategoryTotals(ctx context.Context) (map[expense.Category]decimal.Decimal, error)
}

type MonthTotal struct {
	Month string
	Total decimal.Decimal
}

type Stats struct {
	TotalAllTime     decimal.Decimal
	TotalThisMonth   decimal.Decimal
	HighestExpense   *expense.Expense
	TransactionCount int64
	ByCategory       map[expense.Category]decimal.Decimal
	MonthlyTrend     []MonthTotal
}

type Generator struct {
	storage expensesStorage
	clock   func() time.Time
}

func NewGenerator(storage expensesStorage) *Generator {
	return &Generator{
		storage: storage,
		clock:   time.Now,
	}
}

// WithClock replaces the wall clock used to find the current month.
func (g *Generator) WithClock(clock func() time.Time) *Generator {
	g.clock = clock
	return g
}

// GenerateStats recomputes every figure from the store on each call.
func (g *Generator) GenerateStats(ctx context.Context) (stats Stats, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "generateStats")
	defer span.Finish()

	logger.Debug("GenerateStats - start")
	defer logger.Debug("GenerateStats - end")

	currentMonth := monthStart(g.clock())

	stats.TotalAllTime, err = g.storage.TotalAmount(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "generate stats")
	}
	stats.TotalAllTime = round(stats.TotalAllTime)

	stats.TotalThisMonth, err = g.storage.TotalAmountBetween(ctx, currentMonth, currentMonth.AddMonths(1))
	if err != nil {
		return Stats{}, errors.Wrap(err, "generate stats")
	}
	stats.TotalThisMonth = round(stats.TotalThisMonth)

	highest, err := g.storage.HighestExpense(ctx)
	switch {
	case err == nil:
		stats.HighestExpense = &highest
	case !customerr.IsNotFound(err):
		return Stats{}, errors.Wrap(err, "generate stats")
	}

	stats.TransactionCount, err = g.storage.CountExpenses(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "generate stats")
	}

	stats.ByCategory, err = g.byCategory(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "generate stats")
	}

	stats.MonthlyTrend, err = g.monthlyTrend(ctx, currentMonth)
	if err != nil {
		return Stats{}, errors.Wrap(err, "generate stats")
	}

	logger.Info("stats generated",
		zap.Int64("transactions", stats.TransactionCount),
		zap.String("totalAllTime", stats.TotalAllTime.StringFixed(roundPlaces)))
	return stats, nil
}

func (g *Generator) byCategory(ctx context.Context) (map[expense.Category]decimal.Decimal, error) {
	totals, err := g.storage.CategoryTotals(ctx)
	if err != nil {
		return nil, err
	}
	res := make(map[expense.Category]decimal.Decimal, len(totals))
	for cat, total := range totals {
		if total.IsZero() {
			continue
		}
		res[cat] = round(total)
	}
	return res, nil
}

func (g *Generator) monthlyTrend(ctx context.Context, currentMonth expense.Date) ([]MonthTotal, error) {
	trend := make([]MonthTotal, 0, trendMonths)
	for _, start := range TrendWindow(currentMonth) {
		total, err := g.storage.TotalAmountBetween(ctx, start, start.AddMonths(1))
		if err != nil {
			return nil, err
		}
		trend = append(trend, MonthTotal{
			Month: start.Format(monthLayout),
			Total: round(total),
		})
	}
	return trend, nil
}

// TrendWindow lists the first days of the five months before currentMonth
// and of currentMonth itself, oldest first.
func TrendWindow(currentMonth expense.Date) []expense.Date {
	res := make([]expense.Date, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		res = append(res, currentMonth.AddMonths(-i))
	}
	return res
}

func monthStart(t time.Time) expense.Date {
	return expense.DateOf(now.With(t).BeginningOfMonth())
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(roundPlaces)
}
