package services

import (
	"context"
	"fmt"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
	"cmoney/internal/storage"
)

// BudgetService manages monthly budgets and derives their usage on every
// read.
type BudgetService struct {
	repo  *storage.Repository
	clock Clock
}

func NewBudgetService(repo *storage.Repository, clock Clock) *BudgetService {
	return &BudgetService{repo: repo, clock: clock}
}

// BatchCreateRequest creates one budget per listed month.
type BatchCreateRequest struct {
	YearMonths     []string    `json:"year_months"`
	Amount         *core.Money `json:"amount"`
	CategoryID     *int64      `json:"category"`
	AlertThreshold *int        `json:"alert_threshold"`
}

// BatchCreateResult reports how many budgets were inserted.
type BatchCreateResult struct {
	Created int                 `json:"created"`
	Budgets []core.BudgetStatus `json:"budgets"`
}

// Status derives usage for a single budget.
func (s *BudgetService) Status(ctx context.Context, b core.Budget) (core.BudgetStatus, error) {
	ym, err := core.ParseYearMonth(b.YearMonth)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("budget %d: %w", b.ID, err)
	}
	spent, err := s.repo.SpentInMonth(ctx, b.UserID, ym, b.CategoryID)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.NewBudgetStatus(b, spent), nil
}

func (s *BudgetService) statuses(ctx context.Context, budgets []core.Budget) ([]core.BudgetStatus, error) {
	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.Status(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *BudgetService) List(ctx context.Context, userID int64, f core.BudgetFilter) ([]core.BudgetStatus, error) {
	if f.YearMonth != "" {
		if _, err := core.ParseYearMonth(f.YearMonth); err != nil {
			return nil, core.InvalidField("year_month", err)
		}
	}
	budgets, err := s.repo.ListBudgets(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	return s.statuses(ctx, budgets)
}

func (s *BudgetService) Get(ctx context.Context, userID, id int64) (core.BudgetStatus, error) {
	b, err := s.repo.GetBudget(ctx, userID, id)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return s.Status(ctx, b)
}

func (s *BudgetService) Create(ctx context.Context, userID int64, b core.Budget) (core.BudgetStatus, error) {
	b.UserID = userID
	if b.AlertThreshold == 0 {
		b.AlertThreshold = core.DefaultAlertThreshold
	}
	if err := b.Validate(); err != nil {
		return core.BudgetStatus{}, err
	}
	if err := s.checkCategory(ctx, userID, b.CategoryID); err != nil {
		return core.BudgetStatus{}, err
	}
	if _, err := s.repo.FindBudget(ctx, userID, b.YearMonth, b.CategoryID); err == nil {
		return core.BudgetStatus{}, duplicateBudget()
	} else if core.KindOf(err) != core.KindNotFound {
		return core.BudgetStatus{}, err
	}

	created, err := s.repo.CreateBudget(ctx, b)
	if core.KindOf(err) == core.KindConflict {
		return core.BudgetStatus{}, duplicateBudget()
	}
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return s.Status(ctx, created)
}

func duplicateBudget() error {
	return core.Validation("year_month", "a budget for this month and category already exists")
}

func (s *BudgetService) Update(ctx context.Context, userID, id int64, u core.BudgetUpdate) (core.BudgetStatus, error) {
	if err := u.Validate(); err != nil {
		return core.BudgetStatus{}, err
	}
	b, err := s.repo.GetBudget(ctx, userID, id)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	if u.Amount != nil {
		b.Amount = *u.Amount
	}
	if u.AlertThreshold != nil {
		b.AlertThreshold = *u.AlertThreshold
	}
	if u.IsActive != nil {
		b.IsActive = *u.IsActive
	}
	updated, err := s.repo.UpdateBudget(ctx, b)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return s.Status(ctx, updated)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteBudget(ctx, userID, id)
}

// CurrentMonth returns the active budgets of the current month.
func (s *BudgetService) CurrentMonth(ctx context.Context, userID int64) ([]core.BudgetStatus, error) {
	active := true
	return s.List(ctx, userID, core.BudgetFilter{
		YearMonth: core.CurrentYearMonth(s.clock()).String(),
		IsActive:  &active,
	})
}

// Alerts returns active budgets that are alerting or exceeded.
func (s *BudgetService) Alerts(ctx context.Context, userID int64) ([]core.BudgetStatus, error) {
	active := true
	all, err := s.List(ctx, userID, core.BudgetFilter{IsActive: &active})
	if err != nil {
		return nil, err
	}
	return core.FilterAlerts(all), nil
}

// BatchCreate creates a budget for every listed month whose slot is free.
// Occupied months are skipped silently.
func (s *BudgetService) BatchCreate(ctx context.Context, userID int64, req BatchCreateRequest) (BatchCreateResult, error) {
	if len(req.YearMonths) == 0 {
		return BatchCreateResult{}, core.Validation("year_months", "year_months is required")
	}
	if req.Amount == nil {
		return BatchCreateResult{}, core.Validation("amount", "amount is required")
	}
	threshold := core.DefaultAlertThreshold
	if req.AlertThreshold != nil {
		threshold = *req.AlertThreshold
	}

	template := core.Budget{UserID: userID, Amount: *req.Amount, CategoryID: req.CategoryID, AlertThreshold: threshold, IsActive: true}
	for _, ym := range req.YearMonths {
		b := template
		b.YearMonth = ym
		if err := b.Validate(); err != nil {
			return BatchCreateResult{}, err
		}
	}
	if err := s.checkCategory(ctx, userID, req.CategoryID); err != nil {
		return BatchCreateResult{}, err
	}

	result := BatchCreateResult{Budgets: []core.BudgetStatus{}}
	err := s.repo.WithTx(ctx, func(tx *storage.Repository) error {
		seen := map[string]bool{}
		for _, ym := range req.YearMonths {
			if seen[ym] {
				continue
			}
			seen[ym] = true

			b := template
			b.YearMonth = ym
			created, ok, err := tx.GetOrCreateBudget(ctx, b)
			if err != nil {
				return fmt.Errorf("create budget for %s: %w", ym, err)
			}
			if !ok {
				continue
			}
			result.Created++
			result.Budgets = append(result.Budgets, core.BudgetStatus{Budget: created})
		}
		return nil
	})
	if err != nil {
		return BatchCreateResult{}, err
	}

	for i, b := range result.Budgets {
		st, err := s.Status(ctx, b.Budget)
		if err != nil {
			return BatchCreateResult{}, err
		}
		result.Budgets[i] = st
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentBudget).InfoContext(ctx, "Budgets batch created",
		applog.NewFields().
			WithUser(userID).
			WithOperation(applog.OpCreate).
			With("requested", len(req.YearMonths)).
			With("created", result.Created).
			ToSlice()...)
	return result, nil
}

// CopyToNextMonth clones a budget into the following calendar month.
func (s *BudgetService) CopyToNextMonth(ctx context.Context, userID, id int64) (core.BudgetStatus, error) {
	src, err := s.repo.GetBudget(ctx, userID, id)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	ym, err := core.ParseYearMonth(src.YearMonth)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("budget %d: %w", id, err)
	}
	next := ym.Next().String()

	if _, err := s.repo.FindBudget(ctx, userID, next, src.CategoryID); err == nil {
		return core.BudgetStatus{}, core.Conflict(fmt.Sprintf("a budget for %s already exists", next))
	} else if core.KindOf(err) != core.KindNotFound {
		return core.BudgetStatus{}, err
	}

	created, err := s.repo.CreateBudget(ctx, core.Budget{
		UserID:         userID,
		YearMonth:      next,
		Amount:         src.Amount,
		CategoryID:     src.CategoryID,
		AlertThreshold: src.AlertThreshold,
		IsActive:       true,
	})
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return s.Status(ctx, created)
}

// checkCategory requires an optional budget category to be one of the
// user's expense categories.
func (s *BudgetService) checkCategory(ctx context.Context, userID int64, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	c, err := s.repo.GetCategory(ctx, userID, *categoryID)
	if core.KindOf(err) == core.KindNotFound {
		return core.Validation("category", "category does not exist")
	}
	if err != nil {
		return err
	}
	if c.Type != core.Expense {
		return core.Validation("category", "budgets can only track expense categories")
	}
	return nil
}
