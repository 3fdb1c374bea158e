package repositories

import "storefront/internal/models"

// CartRepository defines the interface for cart item data access. Every
// operation is scoped to the owning user.
type CartRepository interface {
	ListByUser(userID string) ([]models.CartItem, error)
	Get(userID, itemID string) (*models.CartItem, error)
	GetByProduct(userID, productID string) (*models.CartItem, error)
	Create(item *models.CartItem) error
	Update(item *models.CartItem) error
	Delete(userID, itemID string) error
	DeleteByUser(userID string) error
}
