package services

import (
	"context"
	"fmt"
	"strings"

	"cmoney/internal/amqp"
	"cmoney/internal/core"
	applog "cmoney/internal/log"
	"cmoney/internal/middleware/trace"
	"cmoney/internal/storage"
)

// ReviewAction is the reviewer's decision on a claim.
type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
)

// ReviewRequest carries a review decision. Comment is mandatory for rejects.
type ReviewRequest struct {
	Action  ReviewAction `json:"action"`
	Comment string       `json:"comment"`
}

// ClaimService runs the reimbursement workflow: pending claims move once to
// approved or rejected. Approval books an income transaction for the
// claimant in the same database transaction as the status change.
type ClaimService struct {
	repo      *storage.Repository
	publisher EventPublisher
	clock     Clock
}

func NewClaimService(repo *storage.Repository, publisher EventPublisher, clock Clock) *ClaimService {
	return &ClaimService{repo: repo, publisher: publisher, clock: clock}
}

func (s *ClaimService) List(ctx context.Context, userID int64, f core.ClaimFilter) ([]core.Claim, error) {
	switch f.Status {
	case "", core.ClaimPending, core.ClaimApproved, core.ClaimRejected:
	default:
		return nil, core.Validation("status", "status must be pending, approved or rejected")
	}
	return s.repo.ListClaims(ctx, userID, f)
}

// Get returns a claim visible to the user: their own, or one in an
// organization they review for.
func (s *ClaimService) Get(ctx context.Context, userID, id int64) (core.Claim, error) {
	c, err := s.repo.GetClaim(ctx, id)
	if err != nil {
		return core.Claim{}, err
	}
	if c.UserID == userID {
		return c, nil
	}
	m, err := s.repo.GetMembership(ctx, userID, c.OrganizationID)
	if err != nil || !m.Role.CanReview() {
		return core.Claim{}, core.NotFound("claim")
	}
	return c, nil
}

func (s *ClaimService) Create(ctx context.Context, userID int64, c core.Claim) (core.Claim, error) {
	c.Title = strings.TrimSpace(c.Title)
	if err := c.Validate(); err != nil {
		return core.Claim{}, err
	}
	if _, err := s.repo.GetMembership(ctx, userID, c.OrganizationID); err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return core.Claim{}, core.Forbidden("you are not a member of this organization")
		}
		return core.Claim{}, err
	}
	c.UserID = userID
	return s.repo.CreateClaim(ctx, c)
}

// Pending lists claims awaiting the reviewer's decision.
func (s *ClaimService) Pending(ctx context.Context, reviewerID int64) ([]core.Claim, error) {
	return s.repo.PendingClaims(ctx, reviewerID)
}

// Review applies an approve or reject decision to a pending claim.
func (s *ClaimService) Review(ctx context.Context, reviewerID, id int64, req ReviewRequest) (core.Claim, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	switch req.Action {
	case ActionApprove:
	case ActionReject:
		if req.Comment == "" {
			return core.Claim{}, core.InvalidField("comment", core.ErrCommentRequired)
		}
	default:
		return core.Claim{}, core.InvalidField("action", core.ErrInvalidAction)
	}

	claim, err := s.repo.GetClaim(ctx, id)
	if err != nil {
		return core.Claim{}, err
	}
	m, err := s.repo.GetMembership(ctx, reviewerID, claim.OrganizationID)
	if core.KindOf(err) == core.KindNotFound || (err == nil && !m.Role.CanReview()) {
		return core.Claim{}, core.Forbidden("only admins and treasurers can review claims")
	}
	if err != nil {
		return core.Claim{}, err
	}
	if claim.UserID == reviewerID {
		return core.Claim{}, core.Forbidden("you cannot review your own claim")
	}
	if claim.Status != core.ClaimPending {
		return core.Claim{}, core.Conflict(fmt.Sprintf("claim is already %s", claim.Status))
	}

	now := s.clock()
	var booked *core.Transaction
	err = s.repo.WithTx(ctx, func(tx *storage.Repository) error {
		if req.Action == ActionReject {
			return tx.ReviewClaim(ctx, id, reviewerID, core.ClaimRejected, req.Comment, now, nil)
		}

		category, _, err := tx.GetOrCreateCategory(ctx, core.Category{
			UserID: claim.UserID,
			Name:   core.ReimbursementCategoryName,
			Type:   core.Income,
			Icon:   core.ReimbursementCategoryIcon,
			Color:  core.ReimbursementCategoryColor,
		})
		if err != nil {
			return fmt.Errorf("reimbursement category: %w", err)
		}

		orgID := claim.OrganizationID
		t, err := tx.CreateTransaction(ctx, core.Transaction{
			UserID:         claim.UserID,
			CategoryID:     category.ID,
			Amount:         claim.Amount,
			Date:           core.DateOf(now),
			Description:    core.ReimbursementPrefix + claim.Title,
			OrganizationID: &orgID,
		})
		if err != nil {
			return err
		}
		booked = &t
		return tx.ReviewClaim(ctx, id, reviewerID, core.ClaimApproved, req.Comment, now, &t.ID)
	})
	if err != nil {
		return core.Claim{}, err
	}

	if booked != nil {
		ev := amqp.NewTransactionEvent(amqp.ActionCreated, booked.ID, booked.UserID)
		ev.RequestID = trace.GetRequestID(ctx)
		publishEvent(ctx, s.publisher, ev)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentClaims).InfoContext(ctx, "Claim review applied",
		applog.NewFields().
			WithUser(reviewerID).
			WithOperation(applog.OpReview).
			With(applog.FieldClaimID, id).
			With("action", req.Action).
			ToSlice()...)
	return s.repo.GetClaim(ctx, id)
}
