package storage

import (
	"context"
	"fmt"

	"cmoney/internal/core"
)

// TypeTotals sums amounts and counts per category type in [start, end].
func (r *Repository) TypeTotals(ctx context.Context, userID int64, start, end core.Date) (map[core.CategoryType]core.TypeTotal, error) {
	rows, err := r.query(ctx,
		`SELECT c.type, CAST(COALESCE(SUM(t.amount_cents), 0) AS BIGINT), COUNT(t.id)
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND t.transaction_date BETWEEN ? AND ?
		 GROUP BY c.type`,
		userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("sum by type: %w", err)
	}
	defer rows.Close()

	out := map[core.CategoryType]core.TypeTotal{}
	for rows.Next() {
		var (
			typ   string
			total core.TypeTotal
		)
		if err := rows.Scan(&typ, &total.Total.Cents, &total.Count); err != nil {
			return nil, fmt.Errorf("scan type total: %w", err)
		}
		out[core.CategoryType(typ)] = total
	}
	return out, rows.Err()
}

// CategoryTotals groups the user's transactions in [start, end] by category.
// An empty typ includes both income and expense categories.
func (r *Repository) CategoryTotals(ctx context.Context, userID int64, start, end core.Date, typ core.CategoryType) ([]core.CategoryTotal, error) {
	q := `SELECT c.id, c.name, c.type, c.color, c.icon,
		CAST(COALESCE(SUM(t.amount_cents), 0) AS BIGINT), COUNT(t.id)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.transaction_date BETWEEN ? AND ?`
	args := []any{userID, start.String(), end.String()}
	if typ != "" {
		q += ` AND c.type = ?`
		args = append(args, string(typ))
	}
	q += ` GROUP BY c.id, c.name, c.type, c.color, c.icon ORDER BY c.type, 6 DESC, c.id`

	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var (
			ct  core.CategoryTotal
			typ string
		)
		if err := rows.Scan(&ct.CategoryID, &ct.Name, &typ, &ct.Color, &ct.Icon, &ct.Total.Cents, &ct.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct.Type = core.CategoryType(typ)
		out = append(out, ct)
	}
	return out, rows.Err()
}

// MonthTypeTotals groups transactions in [start, end] by YYYY-MM and
// category type.
func (r *Repository) MonthTypeTotals(ctx context.Context, userID int64, start, end core.Date) ([]core.MonthTypeTotal, error) {
	rows, err := r.query(ctx,
		`SELECT substr(t.transaction_date, 1, 7) AS month, c.type,
		 CAST(COALESCE(SUM(t.amount_cents), 0) AS BIGINT), COUNT(t.id)
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND t.transaction_date BETWEEN ? AND ?
		 GROUP BY substr(t.transaction_date, 1, 7), c.type
		 ORDER BY month`,
		userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("sum by month: %w", err)
	}
	defer rows.Close()

	var out []core.MonthTypeTotal
	for rows.Next() {
		var (
			m   core.MonthTypeTotal
			typ string
		)
		if err := rows.Scan(&m.Month, &typ, &m.Total.Cents, &m.Count); err != nil {
			return nil, fmt.Errorf("scan month total: %w", err)
		}
		m.Type = core.CategoryType(typ)
		out = append(out, m)
	}
	return out, rows.Err()
}

// LargestExpense returns the single largest expense in [start, end]. With no
// expenses in range it returns a zero MaxExpense with a nil date.
func (r *Repository) LargestExpense(ctx context.Context, userID int64, start, end core.Date) (core.MaxExpense, error) {
	var (
		m    core.MaxExpense
		date string
	)
	err := r.queryRow(ctx,
		`SELECT t.amount_cents, c.name, t.transaction_date, t.description
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND c.type = ? AND t.transaction_date BETWEEN ? AND ?
		 ORDER BY t.amount_cents DESC, t.transaction_date DESC, t.id DESC
		 LIMIT 1`,
		userID, string(core.Expense), start.String(), end.String()).
		Scan(&m.Amount.Cents, &m.Category, &date, &m.Description)
	if isNoRows(err) {
		return core.MaxExpense{}, nil
	}
	if err != nil {
		return core.MaxExpense{}, fmt.Errorf("largest expense: %w", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.MaxExpense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	m.Date = &d
	return m, nil
}
