package expenses

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/customerr"
	"max.ks1230/expense-tracker/internal/model/reports"
)

type expensesStorage interface {
	CreateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error)
	GetExpense(ctx context.Context, id int64) (expense.Expense, error)
	ListExpenses(ctx context.Context, filter expense.Filter) ([]expense.Expense, error)
	UpdateExpense(ctx context.Context, id int64, patch expense.Patch) (expense.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
}

type statsGenerator interface {
	GenerateStats(ctx context.Context) (reports.Stats, error)
}

type Service struct {
	storage   expensesStorage
	generator statsGenerator
	clock     func() time.Time
}

func NewService(storage expensesStorage, generator statsGenerator) *Service {
	return &Service{
		storage:   storage,
		generator: generator,
		clock:     time.Now,
	}
}

// WithClock replaces the clock that supplies the default expense date.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

func (s *Service) Create(ctx context.Context, draft expense.Draft) (res expense.Expense, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "createExpense")
	defer finishSpan(span, &err)

	e, err := draft.Expense(expense.DateOf(s.clock()))
	if err != nil {
		return expense.Expense{}, err
	}

	res, err = s.storage.CreateExpense(ctx, e)
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "create expense")
	}

	logger.Info("expense created",
		zap.Int64("expenseID", res.ID),
		zap.String("category", res.Category.String()),
		zap.String("amount", res.Amount.String()))
	return res, nil
}

func (s *Service) Get(ctx context.Context, id int64) (res expense.Expense, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getExpense")
	span.SetTag("expenseID", id)
	defer finishSpan(span, &err)

	res, err = s.storage.GetExpense(ctx, id)
	return res, errors.Wrap(err, "get expense")
}

func (s *Service) List(ctx context.Context, filter expense.Filter) (res []expense.Expense, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "listExpenses")
	defer finishSpan(span, &err)

	res, err = s.storage.ListExpenses(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	logger.Debug("expenses listed", zap.Int("count", len(res)))
	return res, nil
}

// Update applies only the fields present in draft. Validation runs before
// the record is looked up, and an update without fields leaves the record as is.
func (s *Service) Update(ctx context.Context, id int64, draft expense.Draft) (res expense.Expense, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "updateExpense")
	span.SetTag("expenseID", id)
	defer finishSpan(span, &err)

	patch, err := draft.Patch()
	if err != nil {
		return expense.Expense{}, err
	}
	if patch.IsEmpty() {
		res, err = s.storage.GetExpense(ctx, id)
		return res, errors.Wrap(err, "update expense")
	}

	res, err = s.storage.UpdateExpense(ctx, id, patch)
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "update expense")
	}

	logger.Info("expense updated", zap.Int64("expenseID", id))
	return res, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "deleteExpense")
	span.SetTag("expenseID", id)
	defer finishSpan(span, &err)

	if err = s.storage.DeleteExpense(ctx, id); err != nil {
		return errors.Wrap(err, "delete expense")
	}

	logger.Info("expense deleted", zap.Int64("expenseID", id))
	return nil
}

func (s *Service) Stats(ctx context.Context) (reports.Stats, error) {
	stats, err := s.generator.GenerateStats(ctx)
	return stats, errors.Wrap(err, "stats")
}

// finishSpan marks the span failed only for store errors; validation and
// not-found are caller mistakes.
func finishSpan(span opentracing.Span, err *error) {
	if *err != nil {
		_, invalid := customerr.AsValidation(*err)
		if !invalid && !customerr.IsNotFound(*err) {
			ext.Error.Set(span, true)
		}
	}
	span.Finish()
}
