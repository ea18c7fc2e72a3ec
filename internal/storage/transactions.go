package storage

import (
	"context"
	"database/sql"
	"fmt"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
)

const transactionSelect = `SELECT t.id, t.user_id, t.category_id, c.name, c.type, c.color, c.icon,
	t.amount_cents, t.transaction_date, t.description, t.organization_id, t.created_at, t.updated_at
	FROM transactions t
	JOIN categories c ON c.id = t.category_id`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t                core.Transaction
		typ, date        string
		orgID            sql.NullInt64
		created, updated string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.CategoryName, &typ, &t.CategoryColor, &t.CategoryIcon,
		&t.Amount.Cents, &date, &t.Description, &orgID, &created, &updated)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CategoryType = core.CategoryType(typ)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	t.Date = d
	t.OrganizationID = ptrInt64(orgID)
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	q := transactionSelect + ` WHERE t.user_id = ?`
	args := []any{userID}
	if f.Type != "" {
		q += ` AND c.type = ?`
		args = append(args, string(f.Type))
	}
	if f.CategoryID != nil {
		q += ` AND t.category_id = ?`
		args = append(args, *f.CategoryID)
	}
	if f.OrganizationID != nil {
		q += ` AND t.organization_id = ?`
		args = append(args, *f.OrganizationID)
	}
	if f.StartDate != nil {
		q += ` AND t.transaction_date >= ?`
		args = append(args, f.StartDate.String())
	}
	if f.EndDate != nil {
		q += ` AND t.transaction_date <= ?`
		args = append(args, f.EndDate.String())
	}
	q += ` ORDER BY t.transaction_date DESC, t.id DESC`
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))

	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(r.queryRow(ctx, transactionSelect+` WHERE t.id = ? AND t.user_id = ?`, id, userID))
	if isNoRows(err) {
		return core.Transaction{}, notFound("transaction")
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// CreateTransaction inserts t. The category is assumed to be validated by
// the caller.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := r.timestamp()
	id, err := r.insert(ctx,
		`INSERT INTO transactions (user_id, category_id, amount_cents, transaction_date, description, organization_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.CategoryID, t.Amount.Cents, t.Date.String(), t.Description, nullInt64(t.OrganizationID), now, now)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	storageLog(ctx).InfoContext(ctx, "Transaction saved", applog.NewFields().
		WithTransaction(id, t.CategoryID, t.Amount.Cents).
		WithUser(t.UserID).
		WithOperation(applog.OpCreate).
		With("date", t.Date.String()).
		ToSlice()...)

	return r.GetTransaction(ctx, t.UserID, id)
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.exec(ctx,
		`UPDATE transactions SET category_id = ?, amount_cents = ?, transaction_date = ?, description = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.CategoryID, t.Amount.Cents, t.Date.String(), t.Description, r.timestamp(), t.ID, t.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := affected(res, "transaction"); err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, t.UserID, t.ID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.exec(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := affected(res, "transaction"); err != nil {
		return err
	}
	storageLog(ctx).InfoContext(ctx, "Transaction deleted",
		applog.NewFields().WithTransaction(id, 0, 0).WithUser(userID).WithOperation(applog.OpDelete).ToSlice()...)
	return nil
}
