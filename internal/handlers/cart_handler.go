package handlers

import (
	"errors"
	"log"

	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the authenticated user's cart.
type CartHandler struct {
	cartService *services.CartService
	validate    *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the cart routes; the router must already
// require authentication.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cart := router.Group("/cart")
	cart.Get("/", h.HandleListItems)
	cart.Post("/", h.HandleAddItem)
	cart.Put("/:id", h.HandleUpdateQuantity)
	cart.Delete("/:id", h.HandleRemoveItem)
}

// HandleListItems lists the user's cart items.
func (h *CartHandler) HandleListItems(c *fiber.Ctx) error {
	items, err := h.cartService.ListItems(currentUserID(c))
	if err != nil {
		log.Printf("Error listing cart items: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not retrieve cart",
		})
	}
	return c.JSON(items)
}

// AddItemRequest is the request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// HandleAddItem adds a product to the cart. Adding a product already in
// the cart increases its quantity instead of duplicating the line.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": validationErrorMap(err),
		})
	}

	item, err := h.cartService.AddItem(currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductUnavailable):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Product is not available",
			})
		case errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		default:
			log.Printf("Error adding cart item: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not add item to cart",
			})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateQuantityRequest is the request body for changing a line quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// HandleUpdateQuantity sets the quantity of a cart line owned by the user.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": validationErrorMap(err),
		})
	}

	item, err := h.cartService.UpdateQuantity(currentUserID(c), c.Params("id"), req.Quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Cart item not found",
			})
		}
		log.Printf("Error updating cart item %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update cart item",
		})
	}
	return c.JSON(item)
}

// HandleRemoveItem removes a cart line owned by the user.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	err := h.cartService.RemoveItem(currentUserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Cart item not found",
			})
		}
		log.Printf("Error removing cart item %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not remove cart item",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
