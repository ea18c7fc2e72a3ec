package http

import (
	"net/http"

	"cmoney/internal/core"
)

type categoryRequest struct {
	Name      string            `json:"name"`
	Type      core.CategoryType `json:"type"`
	Icon      string            `json:"icon"`
	Color     string            `json:"color"`
	SortOrder int               `json:"order"`
}

// GET /categories?type=income|expense
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	typ := q.CategoryType("type")
	if err := q.Err(); err != nil {
		s.fail(w, r, err)
		return
	}
	categories, err := s.svc.Categories.List(r.Context(), userFrom(r.Context()).ID, typ)
	s.respond(w, r, http.StatusOK, categories, err)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := s.svc.Categories.Create(r.Context(), userFrom(r.Context()).ID, core.Category{
		Name:      sanitizeInput(req.Name),
		Type:      req.Type,
		Icon:      sanitizeInput(req.Icon),
		Color:     sanitizeInput(req.Color),
		SortOrder: req.SortOrder,
	})
	s.respond(w, r, http.StatusCreated, created, err)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.Categories.Get(r.Context(), userFrom(r.Context()).ID, id)
	s.respond(w, r, http.StatusOK, c, err)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var u core.CategoryUpdate
	if err := DecodeJSON(r, &u); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.Categories.Update(r.Context(), userFrom(r.Context()).ID, id, u)
	s.respond(w, r, http.StatusOK, c, err)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.svc.Categories.Delete(r.Context(), userFrom(r.Context()).ID, id)
	s.respond(w, r, http.StatusNoContent, nil, err)
}

func (s *Server) handleInitDefaultCategories(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Categories.InitDefaults(r.Context(), userFrom(r.Context()).ID)
	s.respond(w, r, http.StatusOK, map[string]int{"created": n}, err)
}

func (s *Server) handleCategoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Categories.Stats(r.Context(), userFrom(r.Context()).ID)
	s.respond(w, r, http.StatusOK, stats, err)
}
