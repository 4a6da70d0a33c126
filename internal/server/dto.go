package server

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/model/customerr"
	"max.ks1230/expense-tracker/internal/model/reports"
)

// expenseRequest is shared by create and update. A missing key and an
// explicit null both leave the field unset.
type expenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Date        *string          `json:"date"`
	Description *string          `json:"description"`
}

func (r expenseRequest) draft() expense.Draft {
	return expense.Draft{
		Amount:      expense.FromPtr(r.Amount),
		Category:    expense.FromPtr(r.Category),
		Date:        expense.FromPtr(r.Date),
		Description: expense.FromPtr(r.Description),
	}
}

type expenseResponse struct {
	ID          int64        `json:"id"`
	Amount      json.Number  `json:"amount"`
	Category    string       `json:"category"`
	Date        expense.Date `json:"date"`
	Description string       `json:"description"`
}

func newExpenseResponse(e expense.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      amountNumber(e.Amount),
		Category:    e.Category.String(),
		Date:        e.Date,
		Description: e.Description,
	}
}

func newExpenseList(exps []expense.Expense) []expenseResponse {
	res := make([]expenseResponse, 0, len(exps))
	for _, e := range exps {
		res = append(res, newExpenseResponse(e))
	}
	return res
}

type monthTotalResponse struct {
	Month string      `json:"month"`
	Total json.Number `json:"total"`
}

type statsResponse struct {
	TotalAllTime     json.Number            `json:"total_all_time"`
	TotalThisMonth   json.Number            `json:"total_this_month"`
	HighestExpense   *expenseResponse       `json:"highest_expense"`
	TransactionCount int64                  `json:"transaction_count"`
	ByCategory       map[string]json.Number `json:"by_category"`
	MonthlyTrend     []monthTotalResponse   `json:"monthly_trend"`
}

func newStatsResponse(stats reports.Stats) statsResponse {
	res := statsResponse{
		TotalAllTime:     amountNumber(stats.TotalAllTime),
		TotalThisMonth:   amountNumber(stats.TotalThisMonth),
		TransactionCount: stats.TransactionCount,
		ByCategory:       make(map[string]json.Number, len(stats.ByCategory)),
		MonthlyTrend:     make([]monthTotalResponse, 0, len(stats.MonthlyTrend)),
	}
	if stats.HighestExpense != nil {
		highest := newExpenseResponse(*stats.HighestExpense)
		res.HighestExpense = &highest
	}
	for cat, total := range stats.ByCategory {
		res.ByCategory[cat.String()] = amountNumber(total)
	}
	for _, m := range stats.MonthlyTrend {
		res.MonthlyTrend = append(res.MonthlyTrend, monthTotalResponse{Month: m.Month, Total: amountNumber(m.Total)})
	}
	return res
}

// amountNumber writes the exact decimal digits as a JSON number.
func amountNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

type validationErrorResponse struct {
	Detail []customerr.FieldError `json:"detail"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
