package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/customerr"
	"max.ks1230/expense-tracker/internal/model/reports"
)

const maxBodyBytes = 1 << 20

type expenseService interface {
	Create(ctx context.Context, draft expense.Draft) (expense.Expense, error)
	Get(ctx context.Context, id int64) (expense.Expense, error)
	List(ctx context.Context, filter expense.Filter) ([]expense.Expense, error)
	Update(ctx context.Context, id int64, draft expense.Draft) (expense.Expense, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (reports.Stats, error)
}

type healthChecker interface {
	Ping(ctx context.Context) error
}

type handlers struct {
	service expenseService
	health  healthChecker
}

func (h *handlers) createExpense(w http.ResponseWriter, r *http.Request) {
	req, err := decodeExpense(w, r)
	if err != nil {
		h.fail(w, err, 0)
		return
	}

	created, err := h.service.Create(r.Context(), req.draft())
	if err != nil {
		h.fail(w, err, 0)
		return
	}
	writeJSON(w, http.StatusCreated, newExpenseResponse(created))
}

func (h *handlers) listExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.fail(w, err, 0)
		return
	}

	exps, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseList(exps))
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.fail(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(stats))
}

func (h *handlers) getExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err, 0)
		return
	}

	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseResponse(e))
}

func (h *handlers) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err, 0)
		return
	}
	req, err := decodeExpense(w, r)
	if err != nil {
		h.fail(w, err, id)
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.draft())
	if err != nil {
		h.fail(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseResponse(updated))
}

func (h *handlers) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err, 0)
		return
	}

	if err = h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Ping(r.Context()); err != nil {
		logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps the error taxonomy onto status codes. Store errors are logged
// in full and answered with a generic message.
func (h *handlers) fail(w http.ResponseWriter, err error, id int64) {
	if verr, ok := customerr.AsValidation(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{Detail: verr.Fields})
		return
	}
	if customerr.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: fmt.Sprintf("Expense with id %d not found", id)})
		return
	}

	logger.Error("request failed", zap.Error(err), zap.Int64("expenseID", id))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
}

func decodeExpense(w http.ResponseWriter, r *http.Request) (expenseRequest, error) {
	var req expenseRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return expenseRequest{}, customerr.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return req, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, customerr.NewValidationError("id", "must be an integer")
	}
	return id, nil
}

func parseFilter(r *http.Request) (expense.Filter, error) {
	q := r.URL.Query()
	verr := &customerr.ValidationError{}

	var filter expense.Filter
	if category := q.Get("category"); category != "" {
		filter.Category = expense.Some(category)
	}
	if keyword := q.Get("keyword"); keyword != "" {
		filter.Keyword = expense.Some(keyword)
	}
	filter.StartDate = parseDateParam(q.Get("start_date"), "start_date", verr)
	filter.EndDate = parseDateParam(q.Get("end_date"), "end_date", verr)

	if column, ok := expense.ParseSortColumn(q.Get("sort_by")); ok {
		filter.Sort = expense.Sort{Column: column, Descending: q.Get("sort_dir") == "desc"}
	}

	return filter, verr.OrNil()
}

func parseDateParam(raw, field string, verr *customerr.ValidationError) expense.Optional[expense.Date] {
	if raw == "" {
		return expense.None[expense.Date]()
	}
	d, err := expense.ParseDate(raw)
	if err != nil {
		verr.Add(field, err.Error())
		return expense.None[expense.Date]()
	}
	return expense.Some(d)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("cannot write response", zap.Error(err))
	}
}
