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

// CategoryHandler handles HTTP requests for the category tree.
type CategoryHandler struct {
	catalog  *services.CatalogService
	validate *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(catalog *services.CatalogService) *CategoryHandler {
	return &CategoryHandler{
		catalog:  catalog,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public category routes.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router) {
	categories := router.Group("/categories")
	categories.Get("/", h.HandleListCategories)
	categories.Get("/:slug", h.HandleGetCategory)
	categories.Get("/:slug/children", h.HandleGetChildren)
	categories.Get("/:slug/products", h.HandleGetProducts)
}

// RegisterAdminRoutes registers the category write routes; the router must
// already require staff access.
func (h *CategoryHandler) RegisterAdminRoutes(router fiber.Router) {
	categories := router.Group("/categories")
	categories.Post("/", h.HandleCreateCategory)
	categories.Put("/:slug", h.HandleUpdateCategory)
}

// HandleListCategories lists all categories.
func (h *CategoryHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories()
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve categories",
		})
	}
	return c.JSON(categories)
}

// HandleGetCategory retrieves a category with its derived tree position.
func (h *CategoryHandler) HandleGetCategory(c *fiber.Ctx) error {
	category, err := h.catalog.GetCategory(c.Params("slug"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Category not found",
			})
		}
		log.Printf("Error getting category %s: %v", c.Params("slug"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve category",
		})
	}
	level, err := h.catalog.CategoryLevel(category)
	if err != nil {
		log.Printf("Error computing level for category %s: %v", category.Slug, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve category",
		})
	}
	return c.JSON(categoryDetail{
		Category: *category,
		Level:    level,
		IsRoot:   category.IsRoot(),
	})
}

// HandleGetChildren lists the direct children of a category.
func (h *CategoryHandler) HandleGetChildren(c *fiber.Ctx) error {
	children, err := h.catalog.CategoryChildren(c.Params("slug"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Category not found",
			})
		}
		log.Printf("Error listing children of category %s: %v", c.Params("slug"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve child categories",
		})
	}
	return c.JSON(children)
}

// HandleGetProducts lists the active products directly in a category.
func (h *CategoryHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.catalog.CategoryProducts(c.Params("slug"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Category not found",
			})
		}
		log.Printf("Error listing products of category %s: %v", c.Params("slug"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve category products",
		})
	}
	return c.JSON(newProductSummaries(products))
}

// HandleCreateCategory creates a category, rejecting cyclic parent chains.
func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": validationErrorMap(err),
		})
	}
	if err := h.catalog.CreateCategory(&category); err != nil {
		log.Printf("Error creating category: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"parent_id": err.Error()},
		})
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleUpdateCategory updates a category, rejecting cyclic parent chains.
func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	existing, err := h.catalog.GetCategory(c.Params("slug"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Category not found",
			})
		}
		log.Printf("Error getting category %s: %v", c.Params("slug"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve category",
		})
	}
	var payload models.Category
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
	if err := h.catalog.UpdateCategory(&payload); err != nil {
		log.Printf("Error updating category %s: %v", payload.ID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"parent_id": err.Error()},
		})
	}
	return c.JSON(payload)
}
