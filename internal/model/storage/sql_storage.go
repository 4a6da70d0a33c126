package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/customerr"
	"modernc.org/sqlite"

	// postgres driver
	_ "github.com/lib/pq"
)

const (
	postgresDriver = "postgres"
	sqliteDriver   = "sqlite"

	dsnTemplate       = "user=%s password=%s host=%s dbname=%s sslmode=disable"
	sqliteDSNTemplate = "file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	expensesTable = "expenses"

	sqliteLowerFunc = "utf8_lower"
)

var expenseColumns = []string{"id", "amount", "category", "date", "description", "created_at", "updated_at"}

type dialect struct {
	driverName  string
	placeholder sq.PlaceholderFormat
	// sqlite allows a single writer, so the pool is narrowed to one connection.
	maxOpenConns int
	// sqlite keeps amounts as exact TEXT and orders them numerically by cast.
	amountOrder string
	lowerFunc   string
}

var dialects = map[string]dialect{
	postgresDriver: {
		driverName:  postgresDriver,
		placeholder: sq.Dollar,
		amountOrder: "amount",
		lowerFunc:   "LOWER",
	},
	sqliteDriver: {
		driverName:   sqliteDriver,
		placeholder:  sq.Question,
		maxOpenConns: 1,
		amountOrder:  "CAST(amount AS REAL)",
		lowerFunc:    sqliteLowerFunc,
	},
}

// sqlite LOWER() folds ASCII only, keyword matching needs the same folding
// as strings.ToLower.
func init() {
	err := sqlite.RegisterDeterministicScalarFunction(sqliteLowerFunc, 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			case nil:
				return nil, nil
			}
			return nil, fmt.Errorf("%s: unsupported argument %T", sqliteLowerFunc, args[0])
		})
	if err != nil {
		panic(err)
	}
}

type config interface {
	Driver() string
	Path() string
	Host() string
	Username() string
	Password() string
	Database() string
}

// SQLStorage keeps expenses in postgres or sqlite behind one set of queries.
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
	builder sq.StatementBuilderType
	now     func() time.Time
}

func NewSQLStorage(config config) (*SQLStorage, error) {
	d, ok := dialects[config.Driver()]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver())
	}

	dsn, err := buildDSN(d, config)
	if err != nil {
		return nil, errors.Wrap(err, "cannot build dsn")
	}

	if err = runMigrations(d, dsn); err != nil {
		return nil, errors.Wrap(err, "cannot create schema")
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if d.maxOpenConns > 0 {
		db.SetMaxOpenConns(d.maxOpenConns)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "cannot connect to database")
	}

	logger.Info("storage ready", zap.String("driver", d.driverName))
	return &SQLStorage{
		db:      db,
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		now:     time.Now,
	}, nil
}

func buildDSN(d dialect, config config) (string, error) {
	switch d.driverName {
	case postgresDriver:
		return fmt.Sprintf(dsnTemplate,
			config.Username(),
			config.Password(),
			config.Host(),
			config.Database()), nil
	case sqliteDriver:
		if err := os.MkdirAll(filepath.Dir(config.Path()), 0o755); err != nil {
			return "", errors.Wrap(err, "create db directory")
		}
		return fmt.Sprintf(sqliteDSNTemplate, config.Path()), nil
	}
	return "", fmt.Errorf("unsupported database driver %q", d.driverName)
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.PingContext(ctx), "ping database")
}

func (s *SQLStorage) CreateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	now := s.now().UTC()
	query := s.builder.Insert(expensesTable).
		Columns("amount", "category", "date", "description", "created_at", "updated_at").
		Values(e.Amount, string(e.Category), e.Date, e.Description, now, now).
		Suffix("RETURNING id")

	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&e.ID)
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "create expense")
	}
	e.CreatedAt, e.UpdatedAt = now, now
	return e, nil
}

func (s *SQLStorage) GetExpense(ctx context.Context, id int64) (expense.Expense, error) {
	e, err := s.getExpense(ctx, s.db, id)
	return e, errors.Wrap(err, "get expense")
}

func (s *SQLStorage) getExpense(ctx context.Context, runner sq.BaseRunner, id int64) (expense.Expense, error) {
	query := s.builder.Select(expenseColumns...).
		From(expensesTable).
		Where(sq.Eq{"id": id})

	e, err := scanExpense(query.RunWith(runner).QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return expense.Expense{}, customerr.ErrNotFound
	}
	return e, err
}

func (s *SQLStorage) ListExpenses(ctx context.Context, filter expense.Filter) ([]expense.Expense, error) {
	query := s.builder.Select(expenseColumns...).From(expensesTable)

	if category, ok := filter.Category.Get(); ok {
		query = query.Where(sq.Eq{"category": category})
	}
	if start, ok := filter.StartDate.Get(); ok {
		query = query.Where(sq.GtOrEq{"date": start})
	}
	if end, ok := filter.EndDate.Get(); ok {
		query = query.Where(sq.LtOrEq{"date": end})
	}
	if keyword, ok := filter.Keyword.Get(); ok && keyword != "" {
		query = query.Where(s.dialect.lowerFunc+`(description) LIKE ? ESCAPE '\'`,
			"%"+escapeLike(strings.ToLower(keyword))+"%")
	}
	query = query.OrderBy(s.orderBy(filter.Sort)...)

	exps := make([]expense.Expense, 0)
	err := s.eachRow(ctx, query, func(rows *sql.Rows) error {
		e, err := scanExpense(rows)
		if err != nil {
			return err
		}
		exps = append(exps, e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	return exps, nil
}

// UpdateExpense writes only the fields set in patch. The update and the
// re-read share one transaction.
func (s *SQLStorage) UpdateExpense(ctx context.Context, id int64, patch expense.Patch) (expense.Expense, error) {
	set := map[string]interface{}{"updated_at": s.now().UTC()}
	if amount, ok := patch.Amount.Get(); ok {
		set["amount"] = amount
	}
	if category, ok := patch.Category.Get(); ok {
		set["category"] = string(category)
	}
	if date, ok := patch.Date.Get(); ok {
		set["date"] = date
	}
	if desc, ok := patch.Description.Get(); ok {
		set["description"] = desc
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "update expense")
	}
	defer func() {
		txErr := tx.Rollback()
		if txErr != nil && !errors.Is(txErr, sql.ErrTxDone) {
			logger.Error("error when transaction rollback", zap.Error(txErr))
		}
	}()

	res, err := s.builder.Update(expensesTable).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "update expense")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "update expense")
	}
	if affected == 0 {
		return expense.Expense{}, customerr.ErrNotFound
	}

	e, err := s.getExpense(ctx, tx, id)
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "update expense")
	}
	if err = tx.Commit(); err != nil {
		return expense.Expense{}, errors.Wrap(err, "update expense")
	}
	return e, nil
}

// DeleteExpense relies on the row count of a single DELETE, so of two
// concurrent deletes of the same id only one sees a removed row.
func (s *SQLStorage) DeleteExpense(ctx context.Context, id int64) error {
	res, err := s.builder.Delete(expensesTable).
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "delete expense")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete expense")
	}
	if affected == 0 {
		return customerr.ErrNotFound
	}
	return nil
}

// Sums are taken in Go so that totals stay exact on every dialect.

func (s *SQLStorage) TotalAmount(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.sumAmount(ctx, s.builder.Select("amount").From(expensesTable))
	return total, errors.Wrap(err, "total amount")
}

// TotalAmountBetween sums expenses dated in [from, to).
func (s *SQLStorage) TotalAmountBetween(ctx context.Context, from, to expense.Date) (decimal.Decimal, error) {
	query := s.builder.Select("amount").
		From(expensesTable).
		Where(sq.GtOrEq{"date": from}).
		Where(sq.Lt{"date": to})

	total, err := s.sumAmount(ctx, query)
	return total, errors.Wrap(err, "total amount between")
}

func (s *SQLStorage) sumAmount(ctx context.Context, query sq.SelectBuilder) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.eachRow(ctx, query, func(rows *sql.Rows) error {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return err
		}
		total = total.Add(amount)
		return nil
	})
	return total, err
}

func (s *SQLStorage) CountExpenses(ctx context.Context) (int64, error) {
	var count int64
	err := s.builder.Select("COUNT(*)").
		From(expensesTable).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&count)
	return count, errors.Wrap(err, "count expenses")
}

// HighestExpense returns the largest expense, the lowest id among equal amounts.
func (s *SQLStorage) HighestExpense(ctx context.Context) (expense.Expense, error) {
	query := s.builder.Select(expenseColumns...).
		From(expensesTable).
		OrderBy("id ASC")

	var (
		highest expense.Expense
		found   bool
	)
	err := s.eachRow(ctx, query, func(rows *sql.Rows) error {
		e, err := scanExpense(rows)
		if err != nil {
			return err
		}
		if !found || e.Amount.GreaterThan(highest.Amount) {
			highest, found = e, true
		}
		return nil
	})
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "highest expense")
	}
	if !found {
		return expense.Expense{}, customerr.ErrNotFound
	}
	return highest, nil
}

func (s *SQLStorage) CategoryTotals(ctx context.Context) (map[expense.Category]decimal.Decimal, error) {
	query := s.builder.Select("category", "amount").From(expensesTable)

	totals := make(map[expense.Category]decimal.Decimal)
	err := s.eachRow(ctx, query, func(rows *sql.Rows) error {
		var (
			category string
			amount   decimal.Decimal
		)
		if err := rows.Scan(&category, &amount); err != nil {
			return err
		}
		c := expense.Category(category)
		totals[c] = totals[c].Add(amount)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "category totals")
	}
	return totals, nil
}

func (s *SQLStorage) eachRow(ctx context.Context, query sq.SelectBuilder, scan func(rows *sql.Rows) error) error {
	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		rowErr := rows.Close()
		if rowErr != nil {
			logger.Error("error closing rows", zap.Error(rowErr))
		}
	}()

	for rows.Next() {
		if err = scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanExpense(row sq.RowScanner) (expense.Expense, error) {
	var (
		e        expense.Expense
		category string
	)
	err := row.Scan(&e.ID, &e.Amount, &category, &e.Date, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return expense.Expense{}, err
	}
	e.Category = expense.Category(category)
	return e, nil
}

func (s *SQLStorage) orderBy(sort expense.Sort) []string {
	column, ok := expense.ParseSortColumn(string(sort.Column))
	if !ok {
		return []string{"date DESC", "id DESC"}
	}
	dir := "ASC"
	if sort.Descending {
		dir = "DESC"
	}
	expr := string(column)
	if column == expense.SortByAmount {
		expr = s.dialect.amountOrder
	}
	return []string{expr + " " + dir, "id " + dir}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
