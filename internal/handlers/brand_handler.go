package handlers

import (
	"errors"
	"log"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// BrandHandler handles HTTP requests for brands.
type BrandHandler struct {
	catalog  *services.CatalogService
	validate *validator.Validate
}

// NewBrandHandler creates a new BrandHandler.
func NewBrandHandler(catalog *services.CatalogService) *BrandHandler {
	return &BrandHandler{
		catalog:  catalog,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public brand routes.
func (h *BrandHandler) RegisterRoutes(router fiber.Router) {
	brands := router.Group("/brands")
	brands.Get("/", h.HandleListBrands)
	brands.Get("/:slug", h.HandleGetBrand)
	brands.Get("/:slug/products", h.HandleGetProducts)
}

// RegisterAdminRoutes registers the brand write routes; the router must
// already require staff access.
func (h *BrandHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Post("/brands", h.HandleCreateBrand)
}

// HandleListBrands lists all brands.
func (h *BrandHandler) HandleListBrands(c *fiber.Ctx) error {
	brands, err := h.catalog.ListBrands()
	if err != nil {
		log.Printf("Error listing brands: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve brands",
		})
	}
	return c.JSON(brands)
}

// HandleGetBrand retrieves a brand by slug.
func (h *BrandHandler) HandleGetBrand(c *fiber.Ctx) error {
	brand, err := h.catalog.GetBrand(c.Params("slug"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Brand not found",
			})
		}
		log.Printf("Error getting brand %s: %v", c.Params("slug"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve brand",
		})
	}
	return c.JSON(brand)
}

// HandleGetProducts lists the active products of a brand.
func (h *BrandHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.catalog.BrandProducts(c.Params("slug"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Brand not found",
			})
		}
		log.Printf("Error listing products of brand %s: %v", c.Params("slug"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve brand products",
		})
	}
	return c.JSON(newProductSummaries(products))
}

// HandleCreateBrand creates a brand.
func (h *BrandHandler) HandleCreateBrand(c *fiber.Ctx) error {
	var brand models.Brand
	if err := c.BodyParser(&brand); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(brand); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": validationErrorMap(err),
		})
	}
	if err := h.catalog.CreateBrand(&brand); err != nil {
		log.Printf("Error creating brand: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create brand",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(brand)
}
