package handlers

import (
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// pagedResponse wraps one page of results with pagination metadata.
type pagedResponse struct {
	Count    int64       `json:"count"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Results  interface{} `json:"results"`
}

// productSummary is the list representation of a product. in_stock is
// always derived from the stock column, never stored.
type productSummary struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Slug      string           `json:"slug"`
	Price     decimal.Decimal  `json:"price"`
	Currency  string           `json:"currency"`
	Brand     *models.Brand    `json:"brand"`
	Category  *models.Category `json:"category"`
	InStock   bool             `json:"in_stock"`
	CreatedAt time.Time        `json:"created_at"`
}

func newProductSummary(p *models.Product) productSummary {
	return productSummary{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Price:     p.Price,
		Currency:  p.Currency,
		Brand:     p.Brand,
		Category:  p.Category,
		InStock:   p.InStock(),
		CreatedAt: p.CreatedAt,
	}
}

func newProductSummaries(products []models.Product) []productSummary {
	out := make([]productSummary, 0, len(products))
	for i := range products {
		out = append(out, newProductSummary(&products[i]))
	}
	return out
}

// productDetail is the full representation of a single product.
type productDetail struct {
	productSummary
	SKU         string            `json:"sku"`
	Description string            `json:"description"`
	Stock       int               `json:"stock"`
	Attributes  datatypes.JSONMap `json:"attributes"`
	Media       []models.Media    `json:"media"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func newProductDetail(p *models.Product) productDetail {
	media := p.Media
	if media == nil {
		media = []models.Media{}
	}
	return productDetail{
		productSummary: newProductSummary(p),
		SKU:            p.SKU,
		Description:    p.Description,
		Stock:          p.Stock,
		Attributes:     p.Attributes,
		Media:          media,
		UpdatedAt:      p.UpdatedAt,
	}
}

// categoryDetail augments a category with its derived tree position.
type categoryDetail struct {
	models.Category
	Level  int  `json:"level"`
	IsRoot bool `json:"is_root"`
}

// userResponse is the public representation of a user.
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// validationErrorMap flattens validator errors into field-level messages.
func validationErrorMap(err error) map[string]string {
	out := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		out["detail"] = err.Error()
		return out
	}
	for _, e := range validationErrors {
		out[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return out
}

// currentUserID returns the authenticated user's ID set by the auth
// middleware.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
