package services

import (
	"context"
	"fmt"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

// ExpenseService validates expense input, checks that the referenced
// category exists and applies the result to storage.
type ExpenseService struct {
	store ExpenseStore
}

func NewExpenseService(store ExpenseStore) *ExpenseService {
	return &ExpenseService{store: store}
}

// CreateExpense validates in and stores it as a new expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.prepare(ctx, 0, in)
	if err != nil {
		return core.Expense{}, err
	}

	id, err := s.store.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	e.ID = id

	logger(ctx, applog.ComponentExpense).InfoContext(ctx, "Expense created",
		"id", e.ID,
		"description", e.Description,
		"amount", e.Amount.String(),
		"category_id", e.CategoryID)
	return e, nil
}

// UpdateExpense overwrites every field of the expense with id. It applies
// the same validation as CreateExpense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error) {
	if _, err := s.store.GetExpense(ctx, id); err != nil {
		return core.Expense{}, err
	}

	e, err := s.prepare(ctx, id, in)
	if err != nil {
		return core.Expense{}, err
	}

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	logger(ctx, applog.ComponentExpense).InfoContext(ctx, "Expense updated",
		"id", e.ID,
		"description", e.Description,
		"amount", e.Amount.String(),
		"category_id", e.CategoryID)
	return e, nil
}

// DeleteExpense removes the expense with id. A missing expense is not an error.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if !deleted {
		logger(ctx, applog.ComponentExpense).DebugContext(ctx, "Expense already absent", "id", id)
	}
	return nil
}

// GetExpense returns the expense with id or a NotFoundError.
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// ListExpenses returns all expenses with their category name, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.ExpenseListing, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// prepare validates in, then resolves the category reference.
func (s *ExpenseService) prepare(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error) {
	e, err := in.Expense(id)
	if err != nil {
		return core.Expense{}, err
	}

	exists, err := s.store.CategoryExists(ctx, e.CategoryID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("check category %d: %w", e.CategoryID, err)
	}
	if !exists {
		return core.Expense{}, core.NewValidationError(core.MsgCategoryUnknown)
	}
	return e, nil
}
