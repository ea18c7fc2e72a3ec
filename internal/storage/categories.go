package storage

import (
	"context"
	"database/sql"
	"fmt"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
)

const categoryColumns = `c.id, c.user_id, c.organization_id, c.name, c.type, c.icon, c.color, c.is_default, c.sort_order, c.created_at`

func scanCategory(row interface{ Scan(...any) error }, extra ...any) (core.Category, error) {
	var (
		c       core.Category
		orgID   sql.NullInt64
		typ     string
		created string
	)
	dest := []any{&c.ID, &c.UserID, &orgID, &c.Name, &typ, &c.Icon, &c.Color, &c.IsDefault, &c.SortOrder, &created}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return core.Category{}, err
	}
	c.OrganizationID = ptrInt64(orgID)
	c.Type = core.CategoryType(typ)
	c.CreatedAt = parseTime(created)
	return c, nil
}

// ListCategories returns the user's categories with usage annotations,
// optionally restricted to one type.
func (r *Repository) ListCategories(ctx context.Context, userID int64, typ core.CategoryType) ([]core.CategoryUsage, error) {
	q := `SELECT ` + categoryColumns + `,
		COUNT(t.id), CAST(COALESCE(SUM(t.amount_cents), 0) AS BIGINT)
		FROM categories c
		LEFT JOIN transactions t ON t.category_id = c.id
		WHERE c.user_id = ?`
	args := []any{userID}
	if typ != "" {
		q += ` AND c.type = ?`
		args = append(args, string(typ))
	}
	q += ` GROUP BY ` + categoryColumns + ` ORDER BY c.type, c.sort_order, c.name`

	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.CategoryUsage{}
	for rows.Next() {
		var (
			usage core.CategoryUsage
			total int64
		)
		c, err := scanCategory(rows, &usage.UsageCount, &total)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		usage.Category = c
		usage.TotalAmount = core.Money{Cents: total}
		out = append(out, usage)
	}
	return out, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	c, err := scanCategory(r.queryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.id = ? AND c.user_id = ?`, id, userID))
	if isNoRows(err) {
		return core.Category{}, notFound("category")
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// FindCategory looks a category up by its natural key.
func (r *Repository) FindCategory(ctx context.Context, userID int64, name string, typ core.CategoryType) (core.Category, error) {
	c, err := scanCategory(r.queryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.user_id = ? AND c.name = ? AND c.type = ?`,
		userID, name, string(typ)))
	if isNoRows(err) {
		return core.Category{}, notFound("category")
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	now := r.timestamp()
	id, err := r.insert(ctx,
		`INSERT INTO categories (user_id, organization_id, name, type, icon, color, is_default, sort_order, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, nullInt64(c.OrganizationID), c.Name, string(c.Type), c.Icon, c.Color, c.IsDefault, c.SortOrder, now)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.Conflict(fmt.Sprintf("category %q of type %s already exists", c.Name, c.Type))
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	c.ID = id
	c.CreatedAt = parseTime(now)

	storageLog(ctx).InfoContext(ctx, "Category created",
		applog.FieldCategoryID, id, applog.FieldUserID, c.UserID, "name", c.Name, "type", c.Type)
	return c, nil
}

// GetOrCreateCategory returns the category with c's natural key, creating it
// when missing. The boolean reports whether a row was inserted.
func (r *Repository) GetOrCreateCategory(ctx context.Context, c core.Category) (core.Category, bool, error) {
	existing, err := r.FindCategory(ctx, c.UserID, c.Name, c.Type)
	if err == nil {
		return existing, false, nil
	}
	if core.KindOf(err) != core.KindNotFound {
		return core.Category{}, false, err
	}

	created, err := r.CreateCategory(ctx, c)
	if core.KindOf(err) == core.KindConflict {
		// lost a race with a concurrent insert
		existing, ferr := r.FindCategory(ctx, c.UserID, c.Name, c.Type)
		return existing, false, ferr
	}
	if err != nil {
		return core.Category{}, false, err
	}
	return created, true, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, userID, id int64, u core.CategoryUpdate) (core.Category, error) {
	c, err := r.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Icon != nil {
		c.Icon = *u.Icon
	}
	if u.Color != nil {
		c.Color = *u.Color
	}
	if u.SortOrder != nil {
		c.SortOrder = *u.SortOrder
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	_, err = r.exec(ctx,
		`UPDATE categories SET name = ?, icon = ?, color = ?, sort_order = ? WHERE id = ? AND user_id = ?`,
		c.Name, c.Icon, c.Color, c.SortOrder, id, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.Conflict(fmt.Sprintf("category %q of type %s already exists", c.Name, c.Type))
		}
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.exec(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := affected(res, "category"); err != nil {
		return err
	}
	storageLog(ctx).InfoContext(ctx, "Category deleted", applog.FieldCategoryID, id, applog.FieldUserID, userID)
	return nil
}

// CountCategoryTransactions counts transactions tagged with the category.
func (r *Repository) CountCategoryTransactions(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.queryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return n, nil
}
