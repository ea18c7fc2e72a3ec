package http

import (
	"net/http"

	"cmoney/internal/core"
	"cmoney/internal/services"
)

type budgetRequest struct {
	YearMonth      string     `json:"year_month"`
	Amount         core.Money `json:"amount"`
	CategoryID     *int64     `json:"category"`
	AlertThreshold int        `json:"alert_threshold"`
	IsActive       *bool      `json:"is_active"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	f := q.BudgetFilter()
	if err := q.Err(); err != nil {
		s.fail(w, r, err)
		return
	}
	budgets, err := s.svc.Budgets.List(r.Context(), userFrom(r.Context()).ID, f)
	s.respond(w, r, http.StatusOK, budgets, err)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	created, err := s.svc.Budgets.Create(r.Context(), userFrom(r.Context()).ID, core.Budget{
		YearMonth:      sanitizeInput(req.YearMonth),
		Amount:         req.Amount,
		CategoryID:     req.CategoryID,
		AlertThreshold: req.AlertThreshold,
		IsActive:       active,
	})
	s.respond(w, r, http.StatusCreated, created, err)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Get(r.Context(), userFrom(r.Context()).ID, id)
	s.respond(w, r, http.StatusOK, b, err)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var u core.BudgetUpdate
	if err := DecodeJSON(r, &u); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Update(r.Context(), userFrom(r.Context()).ID, id, u)
	s.respond(w, r, http.StatusOK, b, err)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.svc.Budgets.Delete(r.Context(), userFrom(r.Context()).ID, id)
	s.respond(w, r, http.StatusNoContent, nil, err)
}

// GET /budgets/current-month lists active budgets of the current month.
func (s *Server) handleCurrentMonthBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.svc.Budgets.CurrentMonth(r.Context(), userFrom(r.Context()).ID)
	s.respond(w, r, http.StatusOK, budgets, err)
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.svc.Budgets.Alerts(r.Context(), userFrom(r.Context()).ID)
	s.respond(w, r, http.StatusOK, alerts, err)
}

func (s *Server) handleBatchCreateBudgets(w http.ResponseWriter, r *http.Request) {
	var req services.BatchCreateRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Budgets.BatchCreate(r.Context(), userFrom(r.Context()).ID, req)
	s.respond(w, r, http.StatusCreated, res, err)
}

func (s *Server) handleCopyBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.svc.Budgets.CopyToNextMonth(r.Context(), userFrom(r.Context()).ID, id)
	s.respond(w, r, http.StatusCreated, b, err)
}
