package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmoney/internal/core"
)

func createTestStorage(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createTestUser(t *testing.T, repo *Repository, name string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), core.User{Username: name, APIToken: "token-" + name})
	require.NoError(t, err)
	return u
}

func TestRebind(t *testing.T) {
	r := &Repository{dialect: DialectPostgres}
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", r.rebind("SELECT 1 WHERE a = ? AND b = ?"))

	r.dialect = DialectSQLite
	assert.Equal(t, "a = ?", r.rebind("a = ?"))
}

func TestUserByToken(t *testing.T) {
	repo := createTestStorage(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "alice")

	got, err := repo.GetUserByToken(ctx, "token-alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetUserByToken(ctx, "nope")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))

	_, err = repo.CreateUser(ctx, core.User{Username: "alice", APIToken: "other"})
	assert.Equal(t, core.KindConflict, core.KindOf(err))
}

func TestBudgetSlotUniqueness(t *testing.T) {
	repo := createTestStorage(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "bob")

	total := core.Budget{UserID: u.ID, YearMonth: "2025-10", Amount: core.Money{Cents: 50000}, AlertThreshold: 80, IsActive: true}
	_, err := repo.CreateBudget(ctx, total)
	require.NoError(t, err)

	// a second total budget for the same month collides on the null slot
	_, err = repo.CreateBudget(ctx, total)
	assert.Equal(t, core.KindConflict, core.KindOf(err))

	b, created, err := repo.GetOrCreateBudget(ctx, total)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(50000), b.Amount.Cents)

	total.YearMonth = "2025-11"
	_, created, err = repo.GetOrCreateBudget(ctx, total)
	require.NoError(t, err)
	assert.True(t, created)

	cat, err := repo.CreateCategory(ctx, core.Category{UserID: u.ID, Name: "Food", Type: core.Expense})
	require.NoError(t, err)
	catBudget := total
	catBudget.CategoryID = &cat.ID
	_, err = repo.CreateBudget(ctx, catBudget)
	require.NoError(t, err, "category budget uses its own slot")

	found, err := repo.FindBudget(ctx, u.ID, "2025-11", &cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", found.CategoryName)
}

func TestSpentInMonth(t *testing.T) {
	repo := createTestStorage(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "carol")

	food, err := repo.CreateCategory(ctx, core.Category{UserID: u.ID, Name: "Food", Type: core.Expense})
	require.NoError(t, err)
	salary, err := repo.CreateCategory(ctx, core.Category{UserID: u.ID, Name: "Salary", Type: core.Income})
	require.NoError(t, err)

	for _, tx := range []core.Transaction{
		{UserID: u.ID, CategoryID: food.ID, Amount: core.Money{Cents: 10000}, Date: core.NewDate(2025, 9, 1)},
		{UserID: u.ID, CategoryID: food.ID, Amount: core.Money{Cents: 5000}, Date: core.NewDate(2025, 9, 30)},
		{UserID: u.ID, CategoryID: food.ID, Amount: core.Money{Cents: 7000}, Date: core.NewDate(2025, 10, 1)},
		{UserID: u.ID, CategoryID: salary.ID, Amount: core.Money{Cents: 90000}, Date: core.NewDate(2025, 9, 15)},
	} {
		_, err := repo.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	ym, _ := core.ParseYearMonth("2025-09")
	spent, err := repo.SpentInMonth(ctx, u.ID, ym, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), spent.Cents)

	spent, err = repo.SpentInMonth(ctx, u.ID, ym, &salary.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), spent.Cents, "income never counts as spending")

	months, err := repo.MonthTypeTotals(ctx, u.ID, core.NewDate(2025, 1, 1), core.NewDate(2025, 12, 31))
	require.NoError(t, err)
	require.Len(t, months, 3)
	assert.Equal(t, "2025-09", months[0].Month)
	assert.Equal(t, "2025-10", months[2].Month)

	largest, err := repo.LargestExpense(ctx, u.ID, ym.FirstDay(), ym.LastDay())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), largest.Amount.Cents)
	require.NotNil(t, largest.Date)
	assert.Equal(t, "2025-09-01", largest.Date.String())

	none, err := repo.LargestExpense(ctx, u.ID, core.NewDate(2020, 1, 1), core.NewDate(2020, 1, 31))
	require.NoError(t, err)
	assert.Nil(t, none.Date)
}

func TestWithTxRollsBack(t *testing.T) {
	repo := createTestStorage(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "dave")

	err := repo.WithTx(ctx, func(tx *Repository) error {
		if _, err := tx.CreateCategory(ctx, core.Category{UserID: u.ID, Name: "Temp", Type: core.Expense}); err != nil {
			return err
		}
		return core.Conflict("abort")
	})
	require.Error(t, err)

	_, err = repo.FindCategory(ctx, u.ID, "Temp", core.Expense)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}
