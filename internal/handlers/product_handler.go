package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	catalog  *services.CatalogService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public product routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.HandleListProducts)
	products.Get("/:slug", h.HandleGetProduct)
}

// RegisterAdminRoutes registers the product write routes; the router must
// already require staff access.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Post("/", h.HandleCreateProduct)
	products.Put("/:slug", h.HandleUpdateProduct)
	products.Delete("/:slug", h.HandleDeleteProduct)
}

// parseProductQuery maps request query parameters onto a ProductQuery.
// Parsing is permissive: a malformed numeric or boolean value drops that
// filter rather than erroring, and unknown ordering values fall back to
// the default ordering downstream.
func parseProductQuery(c *fiber.Ctx) repositories.ProductQuery {
	q := repositories.ProductQuery{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Color:    c.Query("color"),
		Material: c.Query("material"),
		Size:     c.Query("size"),
		Search:   strings.TrimSpace(c.Query("q")),
		Ordering: c.Query("ordering"),
	}
	if raw := c.Query("min_price"); raw != "" {
		if v, err := decimal.NewFromString(raw); err == nil {
			q.MinPrice = &v
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if v, err := decimal.NewFromString(raw); err == nil {
			q.MaxPrice = &v
		}
	}
	if raw := c.Query("in_stock"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			q.InStock = &v
		}
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		q.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil {
		q.PageSize = v
	}
	return q
}

// HandleListProducts lists active products with filtering, search and
// pagination.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	q := parseProductQuery(c)
	products, total, err := h.catalog.ListProducts(q)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve products",
		})
	}
	q.Normalize()
	return c.JSON(pagedResponse{
		Count:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
		Results:  newProductSummaries(products),
	})
}

// HandleGetProduct retrieves a single active product by slug.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	slug := c.Params("slug")
	product, err := h.catalog.GetProduct(slug)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		log.Printf("Error getting product %s: %v", slug, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve product",
		})
	}
	return c.JSON(newProductDetail(product))
}

// HandleCreateProduct creates a product. The attributes document is
// validated before the write; a failing document aborts it.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": validationErrorMap(err),
		})
	}
	if err := h.catalog.CreateProduct(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"attributes": err.Error()},
		})
	}
	return c.Status(fiber.StatusCreated).JSON(newProductDetail(&product))
}

// HandleUpdateProduct replaces a product identified by slug.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	existing, err := h.catalog.GetProduct(c.Params("slug"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve product",
		})
	}

	var payload models.Product
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	payload.ID = existing.ID
	payload.CreatedAt = existing.CreatedAt
	if err := h.validate.Struct(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": validationErrorMap(err),
		})
	}
	if err := h.catalog.UpdateProduct(&payload); err != nil {
		log.Printf("Error updating product %s: %v", payload.ID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"attributes": err.Error()},
		})
	}
	return c.JSON(newProductDetail(&payload))
}

// HandleDeleteProduct physically deletes a product by slug.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	product, err := h.catalog.GetProduct(c.Params("slug"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve product",
		})
	}
	if err := h.catalog.DeleteProduct(product.ID); err != nil {
		log.Printf("Error deleting product %s: %v", product.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete product",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
