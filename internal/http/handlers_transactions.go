package http

import (
	"net/http"

	"cmoney/internal/core"
)

type transactionRequest struct {
	CategoryID  int64      `json:"category_id"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"transaction_date"`
	Description string     `json:"description"`
}

// GET /transactions?type=&category_id=&organization_id=&start_date=&end_date=&limit=&offset=
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	f := q.TransactionFilter()
	if err := q.Err(); err != nil {
		s.fail(w, r, err)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), userFrom(r.Context()).ID, f)
	s.respond(w, r, http.StatusOK, txs, err)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := s.svc.Transactions.Create(r.Context(), userFrom(r.Context()).ID, core.Transaction{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: sanitizeInput(req.Description),
	})
	s.respond(w, r, http.StatusCreated, created, err)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.svc.Transactions.Get(r.Context(), userFrom(r.Context()).ID, id)
	s.respond(w, r, http.StatusOK, t, err)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var u core.TransactionUpdate
	if err := DecodeJSON(r, &u); err != nil {
		s.fail(w, r, err)
		return
	}
	if u.Description != nil {
		d := sanitizeInput(*u.Description)
		u.Description = &d
	}
	t, err := s.svc.Transactions.Update(r.Context(), userFrom(r.Context()).ID, id, u)
	s.respond(w, r, http.StatusOK, t, err)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.svc.Transactions.Delete(r.Context(), userFrom(r.Context()).ID, id)
	s.respond(w, r, http.StatusNoContent, nil, err)
}
