package services

import (
	"context"

	"expenses/internal/core"
)

// Ports for the storage adapter.
type (
	CategoryStore interface {
		InsertCategory(ctx context.Context, c core.Category) (id int64, err error)
		// UpdateCategory returns a NotFoundError when no row has c.ID.
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id int64) (deleted bool, err error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		ListCategories(ctx context.Context) ([]core.Category, error)
		ListCategoriesByName(ctx context.Context) ([]core.Category, error)
	}

	ExpenseStore interface {
		InsertExpense(ctx context.Context, e core.Expense) (id int64, err error)
		// UpdateExpense returns a NotFoundError when no row has e.ID.
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, id int64) (deleted bool, err error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		ListExpenses(ctx context.Context) ([]core.ExpenseListing, error)
		CategoryExists(ctx context.Context, id int64) (bool, error)
	}
)
