package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(Config{
		Path:        filepath.Join(t.TempDir(), "data", "expense.db"),
		BusyTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestConfigDSN(t *testing.T) {
	assert.Equal(t, "expense.db", Config{Path: "expense.db"}.DSN())
	assert.Equal(t, "expense.db?_pragma=busy_timeout(5000)",
		Config{Path: "expense.db", BusyTimeout: 5 * time.Second}.DSN())
}

func TestMigrationsCreateTables(t *testing.T) {
	repo := newTestRepository(t)

	rows, err := repo.db.Query("SELECT name FROM sqlite_master WHERE type='table'")
	require.NoError(t, err)
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Err())
	assert.Contains(t, tables, "expense_category")
	assert.Contains(t, tables, "expense")
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expense.db")
	repo, err := NewSQLiteRepository(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}

func TestCategoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	id, err := repo.InsertCategory(ctx, core.Category{Name: "Food", Description: "Meals"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := repo.GetCategory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.Category{ID: id, Name: "Food", Description: "Meals"}, got)

	require.NoError(t, repo.UpdateCategory(ctx, core.Category{ID: id, Name: "Groceries", Description: ""}))
	got, err = repo.GetCategory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)
	assert.Equal(t, "", got.Description)

	exists, err := repo.CategoryExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := repo.DeleteCategory(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteCategory(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.GetCategory(ctx, id)
	assert.True(t, core.IsNotFound(err))

	exists, err = repo.CategoryExists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateMissingRowsReportNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	err := repo.UpdateCategory(ctx, core.Category{ID: 99, Name: "x"})
	assert.True(t, core.IsNotFound(err), "got %v", err)

	err = repo.UpdateExpense(ctx, core.Expense{ID: 99, Date: "2024-01-01", Description: "x", CategoryID: 1})
	assert.True(t, core.IsNotFound(err), "got %v", err)
}

func TestListCategoriesOrdering(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for _, name := range []string{"Travel", "food", "Books"} {
		_, err := repo.InsertCategory(ctx, core.Category{Name: name})
		require.NoError(t, err)
	}

	byID, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, byID, 3)
	assert.Equal(t, []string{"Travel", "food", "Books"}, names(byID))

	byName, err := repo.ListCategoriesByName(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "food", "Travel"}, names(byName))
}

func TestExpenseCRUDAndListing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	food, err := repo.InsertCategory(ctx, core.Category{Name: "Food", Description: "Meals"})
	require.NoError(t, err)

	lunch, err := repo.InsertExpense(ctx, core.Expense{
		Date: "2024-01-15", Description: "Lunch", Vendor: "Cafe",
		CategoryID: food, Amount: decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)
	dinner, err := repo.InsertExpense(ctx, core.Expense{
		Date: "2024-02-01", Description: "Dinner",
		CategoryID: food, Amount: decimal.RequireFromString("30"),
	})
	require.NoError(t, err)
	sameDay, err := repo.InsertExpense(ctx, core.Expense{
		Date: "2024-02-01", Description: "Snack",
		CategoryID: food, Amount: decimal.RequireFromString("2.20"),
	})
	require.NoError(t, err)

	list, err := repo.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{sameDay, dinner, lunch}, []int64{list[0].ID, list[1].ID, list[2].ID})
	for _, e := range list {
		assert.Equal(t, "Food", e.CategoryName)
	}
	assert.True(t, list[2].Amount.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "Cafe", list[2].Vendor)

	updated := core.Expense{
		ID: lunch, Date: "2024-01-16", Description: "Brunch", Vendor: "",
		CategoryID: food, Amount: decimal.RequireFromString("-4"),
	}
	require.NoError(t, repo.UpdateExpense(ctx, updated))
	got, err := repo.GetExpense(ctx, lunch)
	require.NoError(t, err)
	assert.Equal(t, updated.Date, got.Date)
	assert.Equal(t, updated.Description, got.Description)
	assert.Equal(t, "", got.Vendor)
	assert.True(t, got.Amount.Equal(updated.Amount))

	deleted, err := repo.DeleteExpense(ctx, lunch)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = repo.GetExpense(ctx, lunch)
	assert.True(t, core.IsNotFound(err))
}

func TestDeletingCategoryLeavesOrphanedExpenses(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	food, err := repo.InsertCategory(ctx, core.Category{Name: "Food"})
	require.NoError(t, err)
	id, err := repo.InsertExpense(ctx, core.Expense{
		Date: "2024-01-15", Description: "Lunch",
		CategoryID: food, Amount: decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)

	_, err = repo.DeleteCategory(ctx, food)
	require.NoError(t, err)

	got, err := repo.GetExpense(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, food, got.CategoryID)

	list, err := repo.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "", list[0].CategoryName)
}

func TestClosedRepositoryReturnsStorageError(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Close())

	_, err := repo.ListCategories(context.Background())
	var se *core.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "list categories", se.Op)
	assert.Error(t, repo.Ping(context.Background()))
}

func names(categories []core.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.Name
	}
	return out
}
