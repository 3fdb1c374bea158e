package repositories

import (
	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// Pagination defaults. Page sizes above MaxPageSize are clamped.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DefaultOrdering is applied when no (or an unknown) ordering is requested.
const DefaultOrdering = "-created_at"

// ProductQuery is the full set of list parameters. Every field is optional;
// all supplied filters combine with logical AND on top of the hard
// is_active scope.
type ProductQuery struct {
	Category string // category slug, case-insensitive exact match
	Brand    string // brand slug, case-insensitive exact match
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	InStock  *bool  // true: stock > 0, false: stock == 0
	Color    string // case-insensitive substring on attributes.color
	Material string // case-insensitive substring on attributes.material
	Size     string // case-insensitive exact match on attributes.size
	Search   string // free-text query across title, description, sku
	Ordering string // price, -price, created_at, -created_at, title, -title
	Page     int
	PageSize int
}

// Normalize clamps pagination values into their allowed ranges.
func (q *ProductQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(q ProductQuery) ([]models.Product, int64, error)
	GetBySlug(slug string) (*models.Product, error)
	GetByID(id string) (*models.Product, error)
	ListByCategoryID(categoryID string) ([]models.Product, error)
	ListByBrandID(brandID string) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// DecrementStock atomically subtracts qty from a product's stock,
	// failing with ErrInsufficientStock when not enough remains.
	DecrementStock(id string, qty int) error
	// IncrementStock adds qty back, used to undo partial checkouts.
	IncrementStock(id string, qty int) error
}
