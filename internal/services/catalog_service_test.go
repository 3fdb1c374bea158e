package services_test

import (
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newCatalogService(t *testing.T) *services.CatalogService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.Media{},
	))
	return services.NewCatalogService(
		repositories.NewGORMProductRepository(db),
		repositories.NewGORMCategoryRepository(db),
		repositories.NewGORMBrandRepository(db),
	)
}

// seedTree builds electronics > computers > laptops plus a root-level
// clothing category.
func seedTree(t *testing.T, svc *services.CatalogService) {
	t.Helper()
	tree := []models.Category{
		{ID: "cat-electronics", Name: "Electronics", Slug: "electronics"},
		{ID: "cat-computers", Name: "Computers", Slug: "computers", ParentID: strPtr("cat-electronics")},
		{ID: "cat-laptops", Name: "Laptops", Slug: "laptops", ParentID: strPtr("cat-computers")},
		{ID: "cat-clothing", Name: "Clothing", Slug: "clothing"},
	}
	for i := range tree {
		require.NoError(t, svc.CreateCategory(&tree[i]))
	}
}

func strPtr(s string) *string { return &s }

func TestCategoryAncestorsAndLevel(t *testing.T) {
	svc := newCatalogService(t)
	seedTree(t, svc)

	laptops, err := svc.GetCategory("laptops")
	require.NoError(t, err)

	ancestors, err := svc.CategoryAncestors(laptops)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, "computers", ancestors[0].Slug, "immediate parent comes first")
	assert.Equal(t, "electronics", ancestors[1].Slug)

	level, err := svc.CategoryLevel(laptops)
	require.NoError(t, err)
	assert.Equal(t, 2, level)

	root, err := svc.GetCategory("electronics")
	require.NoError(t, err)
	level, err = svc.CategoryLevel(root)
	require.NoError(t, err)
	assert.Equal(t, 0, level)
	assert.True(t, root.IsRoot())
	assert.False(t, laptops.IsRoot())
}

func TestCategoryDescendants(t *testing.T) {
	svc := newCatalogService(t)
	seedTree(t, svc)

	root, err := svc.GetCategory("electronics")
	require.NoError(t, err)

	descendants, err := svc.CategoryDescendants(root)
	require.NoError(t, err)
	got := make([]string, 0, len(descendants))
	for _, d := range descendants {
		got = append(got, d.Slug)
	}
	assert.ElementsMatch(t, []string{"computers", "laptops"}, got)

	leaf, err := svc.GetCategory("laptops")
	require.NoError(t, err)
	descendants, err = svc.CategoryDescendants(leaf)
	require.NoError(t, err)
	assert.Empty(t, descendants)
}

func TestCategoryChildren(t *testing.T) {
	svc := newCatalogService(t)
	seedTree(t, svc)

	children, err := svc.CategoryChildren("electronics")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "computers", children[0].Slug)
}

func TestCreateCategoryRejectsSelfParent(t *testing.T) {
	svc := newCatalogService(t)

	category := models.Category{
		ID:       "cat-loop",
		Name:     "Loop",
		Slug:     "loop",
		ParentID: strPtr("cat-loop"),
	}
	err := svc.CreateCategory(&category)
	assert.ErrorIs(t, err, services.ErrCategoryCycle)
}

func TestUpdateCategoryRejectsCycle(t *testing.T) {
	svc := newCatalogService(t)
	seedTree(t, svc)

	// Re-parenting the root under its own grandchild would close a loop.
	root, err := svc.GetCategory("electronics")
	require.NoError(t, err)
	root.ParentID = strPtr("cat-laptops")
	err = svc.UpdateCategory(root)
	assert.ErrorIs(t, err, services.ErrCategoryCycle)

	// A legal re-parent still works.
	computers, err := svc.GetCategory("computers")
	require.NoError(t, err)
	computers.ParentID = strPtr("cat-clothing")
	assert.NoError(t, svc.UpdateCategory(computers))
}

func TestCreateProductValidatesAttributes(t *testing.T) {
	svc := newCatalogService(t)

	product := models.Product{
		Title: "Bad Dimensions", Slug: "bad-dimensions", SKU: "BD-1",
		Price: decimal.RequireFromString("10.00"),
		Attributes: map[string]interface{}{
			"dimensions": map[string]interface{}{"width": 1.0, "height": 2.0},
		},
	}
	err := svc.CreateProduct(&product)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions missing required field")

	// The failed validation must have blocked the write.
	_, err = svc.GetProduct("bad-dimensions")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
