package services

import (
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ErrCategoryCycle is returned when a category write would make the tree
// cyclic.
var ErrCategoryCycle = errors.New("category parent chain would create a cycle")

// CatalogService handles business logic for products, categories and
// brands, including tree navigation and attribute validation.
type CatalogService struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	brands     repositories.BrandRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(products repositories.ProductRepository, categories repositories.CategoryRepository, brands repositories.BrandRepository) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		brands:     brands,
	}
}

// ListProducts runs the filter/search pipeline and returns one page of
// active products plus the total count.
func (s *CatalogService) ListProducts(q repositories.ProductQuery) ([]models.Product, int64, error) {
	return s.products.List(q)
}

// GetProduct retrieves a single active product by slug.
func (s *CatalogService) GetProduct(slug string) (*models.Product, error) {
	return s.products.GetBySlug(slug)
}

// CreateProduct validates the attribute document and persists the product.
// A failing document aborts the write.
func (s *CatalogService) CreateProduct(product *models.Product) error {
	if err := models.ValidateAttributes(product.Attributes); err != nil {
		return err
	}
	return s.products.Create(product)
}

// UpdateProduct validates the attribute document and saves the product.
func (s *CatalogService) UpdateProduct(product *models.Product) error {
	if err := models.ValidateAttributes(product.Attributes); err != nil {
		return err
	}
	return s.products.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *CatalogService) DeleteProduct(id string) error {
	return s.products.Delete(id)
}

// ListCategories retrieves all categories.
func (s *CatalogService) ListCategories() ([]models.Category, error) {
	return s.categories.GetAll()
}

// GetCategory retrieves a category by slug.
func (s *CatalogService) GetCategory(slug string) (*models.Category, error) {
	return s.categories.GetBySlug(slug)
}

// CategoryChildren retrieves the direct children of the category with the
// given slug.
func (s *CatalogService) CategoryChildren(slug string) ([]models.Category, error) {
	category, err := s.categories.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	return s.categories.GetChildren(category.ID)
}

// CategoryProducts retrieves the active products directly in the category
// with the given slug.
func (s *CatalogService) CategoryProducts(slug string) ([]models.Product, error) {
	category, err := s.categories.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	return s.products.ListByCategoryID(category.ID)
}

// CategoryAncestors walks the parent chain and returns it ordered from
// immediate parent to root. O(depth); termination relies on the cycle
// check performed on every category write.
func (s *CatalogService) CategoryAncestors(category *models.Category) ([]models.Category, error) {
	var ancestors []models.Category
	parentID := category.ParentID
	for parentID != nil {
		parent, err := s.categories.GetByID(*parentID)
		if err != nil {
			return nil, fmt.Errorf("broken parent chain at %s: %w", *parentID, err)
		}
		ancestors = append(ancestors, *parent)
		parentID = parent.ParentID
	}
	return ancestors, nil
}

// CategoryDescendants collects every category below the given one,
// depth-first. O(subtree size).
func (s *CatalogService) CategoryDescendants(category *models.Category) ([]models.Category, error) {
	children, err := s.categories.GetChildren(category.ID)
	if err != nil {
		return nil, err
	}
	descendants := make([]models.Category, 0, len(children))
	for i := range children {
		descendants = append(descendants, children[i])
		below, err := s.CategoryDescendants(&children[i])
		if err != nil {
			return nil, err
		}
		descendants = append(descendants, below...)
	}
	return descendants, nil
}

// CategoryLevel is the depth of a category, equal to its ancestor count.
func (s *CatalogService) CategoryLevel(category *models.Category) (int, error) {
	ancestors, err := s.CategoryAncestors(category)
	if err != nil {
		return 0, err
	}
	return len(ancestors), nil
}

// checkParentCycle walks from the proposed parent to the root and rejects
// the write if the category being saved appears in that chain.
func (s *CatalogService) checkParentCycle(category *models.Category) error {
	parentID := category.ParentID
	for parentID != nil {
		if *parentID == category.ID {
			return ErrCategoryCycle
		}
		parent, err := s.categories.GetByID(*parentID)
		if err != nil {
			return fmt.Errorf("invalid parent %s: %w", *parentID, err)
		}
		parentID = parent.ParentID
	}
	return nil
}

// CreateCategory persists a new category after rejecting cyclic parents.
func (s *CatalogService) CreateCategory(category *models.Category) error {
	if err := s.checkParentCycle(category); err != nil {
		return err
	}
	return s.categories.Create(category)
}

// UpdateCategory saves a category after rejecting cyclic parents.
func (s *CatalogService) UpdateCategory(category *models.Category) error {
	if err := s.checkParentCycle(category); err != nil {
		return err
	}
	return s.categories.Update(category)
}

// ListBrands retrieves all brands.
func (s *CatalogService) ListBrands() ([]models.Brand, error) {
	return s.brands.GetAll()
}

// GetBrand retrieves a brand by slug.
func (s *CatalogService) GetBrand(slug string) (*models.Brand, error) {
	return s.brands.GetBySlug(slug)
}

// BrandProducts retrieves the active products of the brand with the given
// slug.
func (s *CatalogService) BrandProducts(slug string) ([]models.Product, error) {
	brand, err := s.brands.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	return s.products.ListByBrandID(brand.ID)
}

// CreateBrand persists a new brand.
func (s *CatalogService) CreateBrand(brand *models.Brand) error {
	return s.brands.Create(brand)
}
