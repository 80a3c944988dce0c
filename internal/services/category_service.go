package services

import (
	"context"
	"fmt"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

// CategoryService validates category input and applies it to storage.
type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// CreateCategory stores a new category and returns the full listing,
// including the new row. An empty name is rejected before any write.
func (s *CategoryService) CreateCategory(ctx context.Context, in core.CategoryInput) ([]core.Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := s.store.InsertCategory(ctx, in.Category(0))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	logger(ctx, applog.ComponentCategory).InfoContext(ctx, "Category created", "id", id, "name", in.Name)

	return s.ListCategories(ctx)
}

// UpdateCategory overwrites name and description of the category with id.
// It applies the same validation as CreateCategory.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, in core.CategoryInput) (core.Category, error) {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return core.Category{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}

	c := in.Category(id)
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	logger(ctx, applog.ComponentCategory).InfoContext(ctx, "Category updated", "id", id, "name", c.Name)
	return c, nil
}

// DeleteCategory removes the category with id. A missing category is not an
// error, and expenses referencing it are left in place.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if !deleted {
		logger(ctx, applog.ComponentCategory).DebugContext(ctx, "Category already absent", "id", id)
	}
	return nil
}

// GetCategory returns the category with id or a NotFoundError.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// ListCategories returns all categories in insertion order.
func (s *CategoryService) ListCategories(ctx context.Context) ([]core.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListCategoriesByName returns all categories sorted by name, as used for
// the category picker on expense forms.
func (s *CategoryService) ListCategoriesByName(ctx context.Context) ([]core.Category, error) {
	categories, err := s.store.ListCategoriesByName(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories by name: %w", err)
	}
	return categories, nil
}
