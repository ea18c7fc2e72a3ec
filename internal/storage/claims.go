package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
)

const claimSelect = `SELECT cl.id, cl.user_id, u.username, cl.organization_id, cl.amount_cents, cl.title, cl.description,
	cl.status, cl.reviewer_id, cl.review_comment, cl.reviewed_at, cl.transaction_id, cl.created_at
	FROM claims cl
	JOIN users u ON u.id = cl.user_id`

func scanClaim(row interface{ Scan(...any) error }) (core.Claim, error) {
	var (
		c               core.Claim
		status, created string
		reviewer, txID  sql.NullInt64
		reviewedAt      sql.NullString
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Username, &c.OrganizationID, &c.Amount.Cents, &c.Title, &c.Description,
		&status, &reviewer, &c.ReviewComment, &reviewedAt, &txID, &created)
	if err != nil {
		return core.Claim{}, err
	}
	c.Status = core.ClaimStatus(status)
	c.ReviewerID = ptrInt64(reviewer)
	c.ReviewedAt = parseNullTime(reviewedAt)
	c.TransactionID = ptrInt64(txID)
	c.CreatedAt = parseTime(created)
	return c, nil
}

func (r *Repository) CreateClaim(ctx context.Context, c core.Claim) (core.Claim, error) {
	id, err := r.insert(ctx,
		`INSERT INTO claims (user_id, organization_id, amount_cents, title, description, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, c.OrganizationID, c.Amount.Cents, c.Title, c.Description, string(core.ClaimPending), r.timestamp())
	if err != nil {
		return core.Claim{}, fmt.Errorf("create claim: %w", err)
	}

	storageLog(ctx).InfoContext(ctx, "Claim submitted",
		applog.FieldClaimID, id,
		applog.FieldUserID, c.UserID,
		applog.FieldOrgID, c.OrganizationID,
		applog.FieldAmountCents, c.Amount.Cents)

	return r.GetClaim(ctx, id)
}

// GetClaim loads a claim without visibility checks; callers enforce them.
func (r *Repository) GetClaim(ctx context.Context, id int64) (core.Claim, error) {
	c, err := scanClaim(r.queryRow(ctx, claimSelect+` WHERE cl.id = ?`, id))
	if isNoRows(err) {
		return core.Claim{}, notFound("claim")
	}
	if err != nil {
		return core.Claim{}, fmt.Errorf("get claim: %w", err)
	}
	return c, nil
}

// reviewerOrgs selects organizations where the user can review claims.
const reviewerOrgs = `SELECT rm.organization_id FROM memberships rm
	WHERE rm.user_id = ? AND rm.role IN ('admin', 'treasurer')`

// ListClaims returns the user's own claims plus every claim of an
// organization where the user is admin or treasurer.
func (r *Repository) ListClaims(ctx context.Context, userID int64, f core.ClaimFilter) ([]core.Claim, error) {
	q := claimSelect + ` WHERE (cl.user_id = ? OR cl.organization_id IN (` + reviewerOrgs + `))`
	args := []any{userID, userID}
	if f.OrganizationID != nil {
		q += ` AND cl.organization_id = ?`
		args = append(args, *f.OrganizationID)
	}
	if f.Status != "" {
		q += ` AND cl.status = ?`
		args = append(args, string(f.Status))
	}
	q += ` ORDER BY cl.created_at DESC, cl.id DESC`
	return r.listClaims(ctx, q, args...)
}

// PendingClaims returns pending claims the reviewer may act on, excluding
// the reviewer's own.
func (r *Repository) PendingClaims(ctx context.Context, reviewerID int64) ([]core.Claim, error) {
	q := claimSelect + ` WHERE cl.status = ? AND cl.user_id <> ? AND cl.organization_id IN (` + reviewerOrgs + `)
		ORDER BY cl.created_at, cl.id`
	return r.listClaims(ctx, q, string(core.ClaimPending), reviewerID, reviewerID)
}

func (r *Repository) listClaims(ctx context.Context, q string, args ...any) ([]core.Claim, error) {
	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	out := []core.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReviewClaim moves a pending claim to a terminal status. It only touches
// rows still pending, so a concurrent second review sees a conflict.
func (r *Repository) ReviewClaim(ctx context.Context, id, reviewerID int64, status core.ClaimStatus, comment string, reviewedAt time.Time, transactionID *int64) error {
	res, err := r.exec(ctx,
		`UPDATE claims SET status = ?, reviewer_id = ?, review_comment = ?, reviewed_at = ?, transaction_id = ?
		 WHERE id = ? AND status = ?`,
		string(status), reviewerID, comment, reviewedAt.UTC().Format(timeLayout), nullInt64(transactionID),
		id, string(core.ClaimPending))
	if err != nil {
		return fmt.Errorf("review claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.Conflict("claim has already been reviewed")
	}

	storageLog(ctx).InfoContext(ctx, "Claim reviewed",
		applog.FieldClaimID, id, "reviewer_id", reviewerID, "status", status)
	return nil
}
