package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func TestCreateCategoryReturnsListing(t *testing.T) {
	ctx := context.Background()
	categories, _ := newServices(t)

	inputs := []core.CategoryInput{
		{Name: "Category 1", Description: "Desc 1"},
		{Name: "Category 2", Description: "Desc 2"},
		{Name: "Category 3", Description: "Desc 3"},
	}
	var listing []core.Category
	var err error
	for _, in := range inputs {
		listing, err = categories.CreateCategory(ctx, in)
		require.NoError(t, err)
	}

	require.Len(t, listing, 3)
	for i, in := range inputs {
		assert.Equal(t, in.Name, listing[i].Name)
		assert.Equal(t, in.Description, listing[i].Description)
	}
}

func TestCreateCategoryRequiresName(t *testing.T) {
	ctx := context.Background()
	categories, _ := newServices(t)

	_, err := categories.CreateCategory(ctx, core.CategoryInput{Name: "", Description: "Should fail"})
	requireValidation(t, err, core.MsgCategoryNameRequired)

	listing, err := categories.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, listing)
}

func TestCreateCategoryDescriptionOptional(t *testing.T) {
	categories, _ := newServices(t)
	listing, err := categories.CreateCategory(context.Background(), core.CategoryInput{Name: "Misc"})
	require.NoError(t, err)
	require.Len(t, listing, 1)
	assert.Equal(t, "", listing[0].Description)
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()
	categories, _ := newServices(t)
	_, err := categories.CreateCategory(ctx, core.CategoryInput{Name: "Original Category", Description: "Original Description"})
	require.NoError(t, err)

	updated, err := categories.UpdateCategory(ctx, 1, core.CategoryInput{Name: "Updated Category", Description: "Updated Description"})
	require.NoError(t, err)
	assert.Equal(t, core.Category{ID: 1, Name: "Updated Category", Description: "Updated Description"}, updated)

	got, err := categories.GetCategory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestUpdateCategoryValidatesLikeCreate(t *testing.T) {
	ctx := context.Background()
	categories, _ := newServices(t)
	_, err := categories.CreateCategory(ctx, core.CategoryInput{Name: "Food"})
	require.NoError(t, err)

	_, err = categories.UpdateCategory(ctx, 1, core.CategoryInput{Name: " "})
	requireValidation(t, err, core.MsgCategoryNameRequired)

	got, err := categories.GetCategory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Name)
}

func TestUpdateCategoryNotFound(t *testing.T) {
	categories, _ := newServices(t)
	_, err := categories.UpdateCategory(context.Background(), 5, core.CategoryInput{Name: "x"})
	assert.True(t, core.IsNotFound(err), "got %v", err)
}

func TestDeleteCategoryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	categories, _ := newServices(t)
	_, err := categories.CreateCategory(ctx, core.CategoryInput{Name: "Keep"})
	require.NoError(t, err)

	require.NoError(t, categories.DeleteCategory(ctx, 99))
	listing, err := categories.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, listing, 1)
}

func TestListCategoriesByName(t *testing.T) {
	ctx := context.Background()
	categories, _ := newServices(t)
	for _, name := range []string{"Zoo", "Art", "Mid"} {
		_, err := categories.CreateCategory(ctx, core.CategoryInput{Name: name})
		require.NoError(t, err)
	}
	sorted, err := categories.ListCategoriesByName(ctx)
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, "Art", sorted[0].Name)
	assert.Equal(t, "Zoo", sorted[2].Name)
}

type brokenCategoryStore struct{ err error }

func (b brokenCategoryStore) InsertCategory(context.Context, core.Category) (int64, error) {
	return 0, b.err
}
func (b brokenCategoryStore) UpdateCategory(context.Context, core.Category) error { return b.err }
func (b brokenCategoryStore) DeleteCategory(context.Context, int64) (bool, error) {
	return false, b.err
}
func (b brokenCategoryStore) GetCategory(context.Context, int64) (core.Category, error) {
	return core.Category{}, b.err
}
func (b brokenCategoryStore) ListCategories(context.Context) ([]core.Category, error) {
	return nil, b.err
}
func (b brokenCategoryStore) ListCategoriesByName(context.Context) ([]core.Category, error) {
	return nil, b.err
}

func TestCategoryServiceWrapsStorageErrors(t *testing.T) {
	ctx := context.Background()
	cause := &core.StorageError{Op: "insert category", Err: errors.New("database is locked")}
	svc := NewCategoryService(brokenCategoryStore{err: cause})

	_, err := svc.CreateCategory(ctx, core.CategoryInput{Name: "Food"})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	_, ok := core.IsValidation(err)
	assert.False(t, ok)

	assert.ErrorIs(t, svc.DeleteCategory(ctx, 1), cause)
	_, err = svc.ListCategoriesByName(ctx)
	assert.ErrorIs(t, err, cause)
}
