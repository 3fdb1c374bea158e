package services

import (
	"errors"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ErrProductUnavailable is returned when a cart operation references a
// missing or inactive product.
var ErrProductUnavailable = errors.New("product is not available")

// CartService handles business logic for user shopping carts.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// ListItems retrieves a user's cart.
func (s *CartService) ListItems(userID string) ([]models.CartItem, error) {
	return s.carts.ListByUser(userID)
}

// AddItem puts a product in the user's cart. The (user, product) pair is
// unique, so adding an already-carted product bumps its quantity instead
// of creating a second row.
func (s *CartService) AddItem(userID, productID string, quantity int) (*models.CartItem, error) {
	product, err := s.products.GetByID(productID)
	if err != nil || !product.IsActive {
		return nil, ErrProductUnavailable
	}

	if existing, err := s.carts.GetByProduct(userID, productID); err == nil {
		existing.Quantity += quantity
		if err := s.carts.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.carts.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateQuantity sets the quantity of a cart item the user owns.
func (s *CartService) UpdateQuantity(userID, itemID string, quantity int) (*models.CartItem, error) {
	item, err := s.carts.Get(userID, itemID)
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	if err := s.carts.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem deletes a cart item the user owns.
func (s *CartService) RemoveItem(userID, itemID string) error {
	return s.carts.Delete(userID, itemID)
}
