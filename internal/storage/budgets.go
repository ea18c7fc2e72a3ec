package storage

import (
	"context"
	"database/sql"
	"fmt"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
)

const budgetSelect = `SELECT b.id, b.user_id, b.year_month, b.amount_cents, b.category_id, COALESCE(c.name, ''),
	b.alert_threshold, b.is_active, b.created_at, b.updated_at
	FROM budgets b
	LEFT JOIN categories c ON c.id = b.category_id`

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b                core.Budget
		catID            sql.NullInt64
		created, updated string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.YearMonth, &b.Amount.Cents, &catID, &b.CategoryName,
		&b.AlertThreshold, &b.IsActive, &created, &updated)
	if err != nil {
		return core.Budget{}, err
	}
	b.CategoryID = ptrInt64(catID)
	b.CreatedAt = parseTime(created)
	b.UpdatedAt = parseTime(updated)
	return b, nil
}

// ListBudgets returns budgets newest month first, the total budget ahead of
// category budgets within a month.
func (r *Repository) ListBudgets(ctx context.Context, userID int64, f core.BudgetFilter) ([]core.Budget, error) {
	q := budgetSelect + ` WHERE b.user_id = ?`
	args := []any{userID}
	if f.YearMonth != "" {
		q += ` AND b.year_month = ?`
		args = append(args, f.YearMonth)
	}
	if f.CategoryID != nil {
		q += ` AND b.category_id = ?`
		args = append(args, *f.CategoryID)
	}
	if f.IsActive != nil {
		q += ` AND b.is_active = ?`
		args = append(args, *f.IsActive)
	}
	q += ` ORDER BY b.year_month DESC, COALESCE(b.category_id, 0), b.id`

	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	b, err := scanBudget(r.queryRow(ctx, budgetSelect+` WHERE b.id = ? AND b.user_id = ?`, id, userID))
	if isNoRows(err) {
		return core.Budget{}, notFound("budget")
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// FindBudget looks up the budget occupying a (user, month, category) slot.
// A nil category addresses the month's total budget.
func (r *Repository) FindBudget(ctx context.Context, userID int64, yearMonth string, categoryID *int64) (core.Budget, error) {
	b, err := scanBudget(r.queryRow(ctx,
		budgetSelect+` WHERE b.user_id = ? AND b.year_month = ? AND COALESCE(b.category_id, 0) = ?`,
		userID, yearMonth, slotKey(categoryID)))
	if isNoRows(err) {
		return core.Budget{}, notFound("budget")
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("find budget: %w", err)
	}
	return b, nil
}

func slotKey(categoryID *int64) int64 {
	if categoryID == nil {
		return 0
	}
	return *categoryID
}

// CreateBudget inserts b. A duplicate slot yields a conflict error.
func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := r.timestamp()
	id, err := r.insert(ctx,
		`INSERT INTO budgets (user_id, year_month, amount_cents, category_id, alert_threshold, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.YearMonth, b.Amount.Cents, nullInt64(b.CategoryID), b.AlertThreshold, b.IsActive, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, core.Conflict("a budget for this month and category already exists")
		}
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	storageLog(ctx).InfoContext(ctx, "Budget created",
		applog.FieldBudgetID, id,
		applog.FieldUserID, b.UserID,
		applog.FieldYearMonth, b.YearMonth,
		applog.FieldAmountCents, b.Amount.Cents)

	return r.GetBudget(ctx, b.UserID, id)
}

// GetOrCreateBudget returns the budget occupying b's slot, inserting b when
// the slot is free. The insert relies on the slot's unique index, so two
// concurrent callers cannot both create.
func (r *Repository) GetOrCreateBudget(ctx context.Context, b core.Budget) (core.Budget, bool, error) {
	now := r.timestamp()
	res, err := r.exec(ctx,
		`INSERT INTO budgets (user_id, year_month, amount_cents, category_id, alert_threshold, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		b.UserID, b.YearMonth, b.Amount.Cents, nullInt64(b.CategoryID), b.AlertThreshold, b.IsActive, now, now)
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("insert budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("rows affected: %w", err)
	}

	existing, err := r.FindBudget(ctx, b.UserID, b.YearMonth, b.CategoryID)
	if err != nil {
		return core.Budget{}, false, err
	}
	return existing, n > 0, nil
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.exec(ctx,
		`UPDATE budgets SET amount_cents = ?, alert_threshold = ?, is_active = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		b.Amount.Cents, b.AlertThreshold, b.IsActive, r.timestamp(), b.ID, b.UserID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := affected(res, "budget"); err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, b.UserID, b.ID)
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.exec(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if err := affected(res, "budget"); err != nil {
		return err
	}
	storageLog(ctx).InfoContext(ctx, "Budget deleted", applog.FieldBudgetID, id, applog.FieldUserID, userID)
	return nil
}

// SpentInMonth sums the user's expense transactions dated inside ym,
// restricted to categoryID when set.
func (r *Repository) SpentInMonth(ctx context.Context, userID int64, ym core.YearMonth, categoryID *int64) (core.Money, error) {
	q := `SELECT CAST(COALESCE(SUM(t.amount_cents), 0) AS BIGINT)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND c.type = ? AND t.transaction_date BETWEEN ? AND ?`
	args := []any{userID, string(core.Expense), ym.FirstDay().String(), ym.LastDay().String()}
	if categoryID != nil {
		q += ` AND t.category_id = ?`
		args = append(args, *categoryID)
	}

	var cents int64
	if err := r.queryRow(ctx, q, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum month expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}
