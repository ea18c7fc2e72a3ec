package http

import (
	"net/http"

	"cmoney/internal/core"
	"cmoney/internal/services"
)

type organizationRequest struct {
	Name        string       `json:"name"`
	Type        core.OrgType `json:"type"`
	Description string       `json:"description"`
}

type roleRequest struct {
	Role core.Role `json:"role"`
}

type claimRequest struct {
	OrganizationID int64      `json:"organization"`
	Amount         core.Money `json:"amount"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
}

func (s *Server) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := s.svc.Organizations.List(r.Context(), userFrom(r.Context()).ID)
	s.respond(w, r, http.StatusOK, orgs, err)
}

func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	org, err := s.svc.Organizations.Create(r.Context(), userFrom(r.Context()).ID, core.Organization{
		Name:        sanitizeInput(req.Name),
		Type:        req.Type,
		Description: sanitizeInput(req.Description),
	})
	s.respond(w, r, http.StatusCreated, org, err)
}

func (s *Server) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	org, err := s.svc.Organizations.Get(r.Context(), userFrom(r.Context()).ID, id)
	s.respond(w, r, http.StatusOK, org, err)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	members, err := s.svc.Organizations.Members(r.Context(), userFrom(r.Context()).ID, id)
	s.respond(w, r, http.StatusOK, members, err)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req services.AddMemberRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.svc.Organizations.AddMember(r.Context(), userFrom(r.Context()).ID, id, req)
	s.respond(w, r, http.StatusCreated, m, err)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	orgID, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	memberID, err := PathID(r, "user_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req roleRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.svc.Organizations.UpdateMemberRole(r.Context(), userFrom(r.Context()).ID, orgID, memberID, req.Role)
	s.respond(w, r, http.StatusOK, m, err)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	orgID, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	memberID, err := PathID(r, "user_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.svc.Organizations.RemoveMember(r.Context(), userFrom(r.Context()).ID, orgID, memberID)
	s.respond(w, r, http.StatusNoContent, nil, err)
}

// GET /claims?organization=&status=
func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	f := q.ClaimFilter()
	if err := q.Err(); err != nil {
		s.fail(w, r, err)
		return
	}
	claims, err := s.svc.Claims.List(r.Context(), userFrom(r.Context()).ID, f)
	s.respond(w, r, http.StatusOK, claims, err)
}

func (s *Server) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.Claims.Create(r.Context(), userFrom(r.Context()).ID, core.Claim{
		OrganizationID: req.OrganizationID,
		Amount:         req.Amount,
		Title:          sanitizeInput(req.Title),
		Description:    sanitizeInput(req.Description),
	})
	s.respond(w, r, http.StatusCreated, c, err)
}

// GET /claims/pending lists claims the caller may review.
func (s *Server) handlePendingClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := s.svc.Claims.Pending(r.Context(), userFrom(r.Context()).ID)
	s.respond(w, r, http.StatusOK, claims, err)
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.Claims.Get(r.Context(), userFrom(r.Context()).ID, id)
	s.respond(w, r, http.StatusOK, c, err)
}

func (s *Server) handleReviewClaim(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req services.ReviewRequest
	if err := DecodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.Comment = sanitizeInput(req.Comment)
	c, err := s.svc.Claims.Review(r.Context(), userFrom(r.Context()).ID, id, req)
	s.respond(w, r, http.StatusOK, c, err)
}
