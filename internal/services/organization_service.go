package services

import (
	"context"
	"strings"

	"cmoney/internal/core"
	"cmoney/internal/storage"
)

// OrganizationService manages shared groups and their role-tagged members.
type OrganizationService struct {
	repo *storage.Repository
}

func NewOrganizationService(repo *storage.Repository) *OrganizationService {
	return &OrganizationService{repo: repo}
}

// AddMemberRequest enrolls an existing user. Role defaults to member.
type AddMemberRequest struct {
	UserID int64     `json:"user_id"`
	Role   core.Role `json:"role"`
}

func (s *OrganizationService) Create(ctx context.Context, userID int64, o core.Organization) (core.Organization, error) {
	o.Name = strings.TrimSpace(o.Name)
	if o.Type == "" {
		o.Type = core.OrgOther
	}
	if err := o.Validate(); err != nil {
		return core.Organization{}, err
	}
	o.CreatorID = userID
	return s.repo.CreateOrganization(ctx, o)
}

func (s *OrganizationService) List(ctx context.Context, userID int64) ([]core.Organization, error) {
	return s.repo.ListOrganizations(ctx, userID)
}

func (s *OrganizationService) Get(ctx context.Context, userID, orgID int64) (core.Organization, error) {
	return s.repo.GetOrganization(ctx, userID, orgID)
}

// Members lists members; only members may look.
func (s *OrganizationService) Members(ctx context.Context, userID, orgID int64) ([]core.Membership, error) {
	if _, err := s.membership(ctx, userID, orgID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, orgID)
}

func (s *OrganizationService) AddMember(ctx context.Context, userID, orgID int64, req AddMemberRequest) (core.Membership, error) {
	if err := s.requireAdmin(ctx, userID, orgID); err != nil {
		return core.Membership{}, err
	}
	if req.Role == "" {
		req.Role = core.RoleMember
	}
	if !req.Role.IsValid() {
		return core.Membership{}, core.InvalidField("role", core.ErrInvalidRole)
	}
	if _, err := s.repo.GetUser(ctx, req.UserID); err != nil {
		return core.Membership{}, err
	}
	return s.repo.AddMembership(ctx, core.Membership{UserID: req.UserID, OrganizationID: orgID, Role: req.Role})
}

func (s *OrganizationService) UpdateMemberRole(ctx context.Context, userID, orgID, memberID int64, role core.Role) (core.Membership, error) {
	if err := s.requireAdmin(ctx, userID, orgID); err != nil {
		return core.Membership{}, err
	}
	if !role.IsValid() {
		return core.Membership{}, core.InvalidField("role", core.ErrInvalidRole)
	}
	creator, err := s.repo.OrganizationCreator(ctx, orgID)
	if err != nil {
		return core.Membership{}, err
	}
	if memberID == creator && role != core.RoleAdmin {
		return core.Membership{}, core.Forbidden("the organization creator must remain an admin")
	}
	return s.repo.UpdateMembershipRole(ctx, memberID, orgID, role)
}

func (s *OrganizationService) RemoveMember(ctx context.Context, userID, orgID, memberID int64) error {
	if err := s.requireAdmin(ctx, userID, orgID); err != nil {
		return err
	}
	creator, err := s.repo.OrganizationCreator(ctx, orgID)
	if err != nil {
		return err
	}
	if memberID == creator {
		return core.Forbidden("the organization creator cannot be removed")
	}
	return s.repo.DeleteMembership(ctx, memberID, orgID)
}

// membership returns the caller's membership, hiding the organization from
// outsiders.
func (s *OrganizationService) membership(ctx context.Context, userID, orgID int64) (core.Membership, error) {
	m, err := s.repo.GetMembership(ctx, userID, orgID)
	if core.KindOf(err) == core.KindNotFound {
		return core.Membership{}, core.NotFound("organization")
	}
	return m, err
}

func (s *OrganizationService) requireAdmin(ctx context.Context, userID, orgID int64) error {
	m, err := s.membership(ctx, userID, orgID)
	if err != nil {
		return err
	}
	if m.Role != core.RoleAdmin {
		return core.Forbidden("only organization admins can manage members")
	}
	return nil
}
