package repositories

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// orderings whitelists the ordering parameter. Anything else silently
// falls back to DefaultOrdering.
var orderings = map[string]string{
	"price":       "products.price ASC",
	"-price":      "products.price DESC",
	"created_at":  "products.created_at ASC",
	"-created_at": "products.created_at DESC",
	"title":       "products.title ASC",
	"-title":      "products.title DESC",
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{db: db}
}

func (r *GORMProductRepository) isPostgres() bool {
	return r.db.Dialector.Name() == "postgres"
}

// likeEscaper neutralizes LIKE pattern metacharacters so user-supplied
// filter values always match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

// attrCondition builds a case-insensitive condition against one of the
// fixed JSON attribute keys. key is never caller-controlled; exact matches
// use plain equality, substring matches escape the value first.
func (r *GORMProductRepository) attrCondition(db *gorm.DB, key, value string, exact bool) *gorm.DB {
	if r.isPostgres() {
		if exact {
			return db.Where(fmt.Sprintf("LOWER(products.attributes ->> '%s') = LOWER(?)", key), value)
		}
		return db.Where(fmt.Sprintf("products.attributes ->> '%s' ILIKE ?", key), "%"+escapeLike(value)+"%")
	}
	if exact {
		return db.Where(fmt.Sprintf("LOWER(json_extract(products.attributes, '$.%s')) = LOWER(?)", key), value)
	}
	expr := fmt.Sprintf(`LOWER(json_extract(products.attributes, '$.%s')) LIKE ? ESCAPE '\'`, key)
	return db.Where(expr, "%"+strings.ToLower(escapeLike(value))+"%")
}

// applyFilters layers every supplied predicate onto the active-product base
// scope. Predicates are independent and AND-composed, so application order
// never changes the result set.
func (r *GORMProductRepository) applyFilters(q ProductQuery) *gorm.DB {
	db := r.db.Model(&models.Product{}).Where("products.is_active = ?", true)

	if q.Category != "" {
		db = db.Joins("JOIN categories ON categories.id = products.category_id").
			Where("LOWER(categories.slug) = LOWER(?)", q.Category)
	}
	if q.Brand != "" {
		db = db.Joins("JOIN brands ON brands.id = products.brand_id").
			Where("LOWER(brands.slug) = LOWER(?)", q.Brand)
	}
	if q.MinPrice != nil {
		db = db.Where("products.price >= ?", q.MinPrice)
	}
	if q.MaxPrice != nil {
		db = db.Where("products.price <= ?", q.MaxPrice)
	}
	if q.InStock != nil {
		if *q.InStock {
			db = db.Where("products.stock > 0")
		} else {
			db = db.Where("products.stock = 0")
		}
	}
	if q.Color != "" {
		db = r.attrCondition(db, "color", q.Color, false)
	}
	if q.Material != "" {
		db = r.attrCondition(db, "material", q.Material, false)
	}
	if q.Size != "" {
		db = r.attrCondition(db, "size", q.Size, true)
	}
	if q.Search != "" {
		db = r.applySearch(db, q.Search)
	}
	return db
}

// applySearch narrows to documents matching the free-text query. On
// Postgres the match is the union of a weighted tsvector query and a
// case-insensitive substring match on title/description/sku; the substring
// leg covers partial words the text-search parser drops. Other dialects
// use the substring leg alone.
func (r *GORMProductRepository) applySearch(db *gorm.DB, search string) *gorm.DB {
	if r.isPostgres() {
		like := "%" + escapeLike(search) + "%"
		return db.Where(
			"(to_tsvector('english', coalesce(products.title, '') || ' ' || coalesce(products.description, '') || ' ' || coalesce(products.sku, '')) @@ plainto_tsquery('english', ?)"+
				" OR products.title ILIKE ? OR products.description ILIKE ? OR products.sku ILIKE ?)",
			search, like, like, like,
		)
	}
	like := "%" + strings.ToLower(escapeLike(search)) + "%"
	return db.Where(
		`(LOWER(products.title) LIKE ? ESCAPE '\' OR LOWER(products.description) LIKE ? ESCAPE '\' OR LOWER(products.sku) LIKE ? ESCAPE '\')`,
		like, like, like,
	)
}

// applyOrdering picks the sort. A free-text query overrides the ordering
// parameter: relevance rank descending, then newest first.
func (r *GORMProductRepository) applyOrdering(db *gorm.DB, q ProductQuery) *gorm.DB {
	if q.Search != "" {
		if r.isPostgres() {
			rank := "ts_rank(" +
				"setweight(to_tsvector('english', coalesce(products.title, '')), 'A') || " +
				"setweight(to_tsvector('english', coalesce(products.description, '')), 'B') || " +
				"setweight(to_tsvector('english', coalesce(products.sku, '')), 'C'), " +
				"plainto_tsquery('english', ?))"
			return db.Select("products.*, "+rank+" AS search_rank", q.Search).
				Order("search_rank DESC, products.created_at DESC")
		}
		return db.Order("products.created_at DESC")
	}
	clause, ok := orderings[q.Ordering]
	if !ok {
		clause = orderings[DefaultOrdering]
	}
	return db.Order(clause)
}

// List runs the full filter/search pipeline and returns one page of
// products plus the total match count. Out-of-range pages return an empty
// slice, not an error.
func (r *GORMProductRepository) List(q ProductQuery) ([]models.Product, int64, error) {
	q.Normalize()

	var total int64
	if err := r.applyFilters(q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	db := r.applyOrdering(r.applyFilters(q), q).
		Preload("Brand").
		Preload("Category").
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize)

	var products []models.Product
	if err := db.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func mediaOrdered(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order, created_at")
}

// GetBySlug retrieves a single active product with its brand, category and
// ordered media.
func (r *GORMProductRepository) GetBySlug(slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Brand").Preload("Category").Preload("Media", mediaOrdered).
		First(&product, "slug = ? AND is_active = ?", slug, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with slug %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}
	return &product, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// ListByCategoryID retrieves active products directly in a category.
func (r *GORMProductRepository) ListByCategoryID(categoryID string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Preload("Brand").Preload("Category").
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products for category %s: %w", categoryID, err)
	}
	return products, nil
}

// ListByBrandID retrieves active products for a brand.
func (r *GORMProductRepository) ListByBrandID(brandID string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Preload("Brand").Preload("Category").
		Where("brand_id = ? AND is_active = ?", brandID, true).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products for brand %s: %w", brandID, err)
	}
	return products, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Currency == "" {
		product.Currency = "USD"
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete physically deletes a product; owned media rows cascade.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// DecrementStock performs a conditional decrement so that concurrent
// purchases of the last unit cannot both succeed.
func (r *GORMProductRepository) DecrementStock(id string, qty int) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrInsufficientStock)
	}
	return nil
}

// IncrementStock returns stock to a product after a failed checkout.
func (r *GORMProductRepository) IncrementStock(id string, qty int) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to increment stock for product %s: %w", id, res.Error)
	}
	return nil
}
