package storage

import (
	"context"
	"fmt"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
)

// CreateOrganization inserts o and enrolls its creator as admin.
func (r *Repository) CreateOrganization(ctx context.Context, o core.Organization) (core.Organization, error) {
	err := r.WithTx(ctx, func(tx *Repository) error {
		now := tx.timestamp()
		id, err := tx.insert(ctx,
			`INSERT INTO organizations (name, type, description, creator_id, created_at) VALUES (?, ?, ?, ?, ?)`,
			o.Name, string(o.Type), o.Description, o.CreatorID, now)
		if err != nil {
			return fmt.Errorf("create organization: %w", err)
		}
		o.ID = id
		o.CreatedAt = parseTime(now)

		if _, err := tx.AddMembership(ctx, core.Membership{UserID: o.CreatorID, OrganizationID: id, Role: core.RoleAdmin}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return core.Organization{}, err
	}
	o.MemberCount = 1
	o.MyRole = core.RoleAdmin

	storageLog(ctx).InfoContext(ctx, "Organization created",
		applog.FieldOrgID, o.ID, applog.FieldUserID, o.CreatorID, "name", o.Name)
	return o, nil
}

const organizationSelect = `SELECT o.id, o.name, o.type, o.description, o.creator_id, o.created_at,
	(SELECT COUNT(*) FROM memberships mc WHERE mc.organization_id = o.id), m.role
	FROM organizations o
	JOIN memberships m ON m.organization_id = o.id AND m.user_id = ?`

func scanOrganization(row interface{ Scan(...any) error }) (core.Organization, error) {
	var (
		o         core.Organization
		typ, role string
		created   string
	)
	if err := row.Scan(&o.ID, &o.Name, &typ, &o.Description, &o.CreatorID, &created, &o.MemberCount, &role); err != nil {
		return core.Organization{}, err
	}
	o.Type = core.OrgType(typ)
	o.MyRole = core.Role(role)
	o.CreatedAt = parseTime(created)
	return o, nil
}

// ListOrganizations returns the organizations userID belongs to.
func (r *Repository) ListOrganizations(ctx context.Context, userID int64) ([]core.Organization, error) {
	rows, err := r.query(ctx, organizationSelect+` ORDER BY o.created_at DESC, o.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	out := []core.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetOrganization returns the organization as seen by a member. Non-members
// get not-found.
func (r *Repository) GetOrganization(ctx context.Context, userID, id int64) (core.Organization, error) {
	o, err := scanOrganization(r.queryRow(ctx, organizationSelect+` WHERE o.id = ?`, userID, id))
	if isNoRows(err) {
		return core.Organization{}, notFound("organization")
	}
	if err != nil {
		return core.Organization{}, fmt.Errorf("get organization: %w", err)
	}
	return o, nil
}

// OrganizationCreator returns the creator of an organization.
func (r *Repository) OrganizationCreator(ctx context.Context, id int64) (int64, error) {
	var creator int64
	err := r.queryRow(ctx, `SELECT creator_id FROM organizations WHERE id = ?`, id).Scan(&creator)
	if isNoRows(err) {
		return 0, notFound("organization")
	}
	if err != nil {
		return 0, fmt.Errorf("get organization creator: %w", err)
	}
	return creator, nil
}

const membershipSelect = `SELECT m.id, m.user_id, u.username, m.organization_id, m.role, m.joined_at
	FROM memberships m
	JOIN users u ON u.id = m.user_id`

func scanMembership(row interface{ Scan(...any) error }) (core.Membership, error) {
	var (
		m      core.Membership
		role   string
		joined string
	)
	if err := row.Scan(&m.ID, &m.UserID, &m.Username, &m.OrganizationID, &role, &joined); err != nil {
		return core.Membership{}, err
	}
	m.Role = core.Role(role)
	m.JoinedAt = parseTime(joined)
	return m, nil
}

// GetMembership returns userID's membership in orgID.
func (r *Repository) GetMembership(ctx context.Context, userID, orgID int64) (core.Membership, error) {
	m, err := scanMembership(r.queryRow(ctx,
		membershipSelect+` WHERE m.user_id = ? AND m.organization_id = ?`, userID, orgID))
	if isNoRows(err) {
		return core.Membership{}, notFound("membership")
	}
	if err != nil {
		return core.Membership{}, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (r *Repository) ListMembers(ctx context.Context, orgID int64) ([]core.Membership, error) {
	rows, err := r.query(ctx, membershipSelect+` WHERE m.organization_id = ? ORDER BY m.joined_at, m.id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	out := []core.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) AddMembership(ctx context.Context, m core.Membership) (core.Membership, error) {
	now := r.timestamp()
	id, err := r.insert(ctx,
		`INSERT INTO memberships (user_id, organization_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		m.UserID, m.OrganizationID, string(m.Role), now)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Membership{}, core.Conflict("user is already a member of this organization")
		}
		return core.Membership{}, fmt.Errorf("add membership: %w", err)
	}
	m.ID = id
	m.JoinedAt = parseTime(now)

	storageLog(ctx).InfoContext(ctx, "Member added",
		applog.FieldOrgID, m.OrganizationID, applog.FieldUserID, m.UserID, "role", m.Role)
	return r.GetMembership(ctx, m.UserID, m.OrganizationID)
}

func (r *Repository) UpdateMembershipRole(ctx context.Context, userID, orgID int64, role core.Role) (core.Membership, error) {
	res, err := r.exec(ctx, `UPDATE memberships SET role = ? WHERE user_id = ? AND organization_id = ?`,
		string(role), userID, orgID)
	if err != nil {
		return core.Membership{}, fmt.Errorf("update membership role: %w", err)
	}
	if err := affected(res, "membership"); err != nil {
		return core.Membership{}, err
	}
	return r.GetMembership(ctx, userID, orgID)
}

func (r *Repository) DeleteMembership(ctx context.Context, userID, orgID int64) error {
	res, err := r.exec(ctx, `DELETE FROM memberships WHERE user_id = ? AND organization_id = ?`, userID, orgID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if err := affected(res, "membership"); err != nil {
		return err
	}
	storageLog(ctx).InfoContext(ctx, "Member removed", applog.FieldOrgID, orgID, applog.FieldUserID, userID)
	return nil
}
