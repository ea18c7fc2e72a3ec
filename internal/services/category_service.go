package services

import (
	"context"
	"fmt"
	"strings"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
	"cmoney/internal/storage"
)

// CategoryService manages a user's income and expense categories.
type CategoryService struct {
	repo *storage.Repository
}

func NewCategoryService(repo *storage.Repository) *CategoryService {
	return &CategoryService{repo: repo}
}

// CategoryStats splits annotated categories by type.
type CategoryStats struct {
	Income  []core.CategoryUsage `json:"income"`
	Expense []core.CategoryUsage `json:"expense"`
}

func (s *CategoryService) List(ctx context.Context, userID int64, typ core.CategoryType) ([]core.CategoryUsage, error) {
	if typ != "" && !typ.IsValid() {
		return nil, core.InvalidField("type", core.ErrInvalidCategoryType)
	}
	return s.repo.ListCategories(ctx, userID, typ)
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (core.Category, error) {
	return s.repo.GetCategory(ctx, userID, id)
}

func (s *CategoryService) Create(ctx context.Context, userID int64, c core.Category) (core.Category, error) {
	c.UserID = userID
	c.Name = strings.TrimSpace(c.Name)
	c.IsDefault = false
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.repo.CreateCategory(ctx, c)
}

func (s *CategoryService) Update(ctx context.Context, userID, id int64, u core.CategoryUpdate) (core.Category, error) {
	if u.Name != nil {
		trimmed := strings.TrimSpace(*u.Name)
		u.Name = &trimmed
	}
	return s.repo.UpdateCategory(ctx, userID, id, u)
}

// Delete removes a category that is neither a default nor in use.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	c, err := s.repo.GetCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if c.IsDefault {
		return core.Forbidden("default categories cannot be deleted")
	}
	n, err := s.repo.CountCategoryTransactions(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return core.Conflict(fmt.Sprintf("category has %d transactions and cannot be deleted", n))
	}
	return s.repo.DeleteCategory(ctx, userID, id)
}

// InitDefaults seeds the default categories, skipping any that already
// exist. It returns how many were created.
func (s *CategoryService) InitDefaults(ctx context.Context, userID int64) (int, error) {
	created := 0
	err := s.repo.WithTx(ctx, func(tx *storage.Repository) error {
		for _, def := range core.DefaultCategories {
			def.UserID = userID
			def.IsDefault = true
			_, ok, err := tx.GetOrCreateCategory(ctx, def)
			if err != nil {
				return fmt.Errorf("seed category %q: %w", def.Name, err)
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentCategories).InfoContext(ctx, "Default categories initialized",
		applog.NewFields().WithUser(userID).WithOperation(applog.OpCreate).With("created", created).ToSlice()...)
	return created, nil
}

func (s *CategoryService) Stats(ctx context.Context, userID int64) (CategoryStats, error) {
	all, err := s.repo.ListCategories(ctx, userID, "")
	if err != nil {
		return CategoryStats{}, err
	}
	stats := CategoryStats{Income: []core.CategoryUsage{}, Expense: []core.CategoryUsage{}}
	for _, c := range all {
		if c.Type == core.Income {
			stats.Income = append(stats.Income, c)
		} else {
			stats.Expense = append(stats.Expense, c)
		}
	}
	return stats, nil
}
