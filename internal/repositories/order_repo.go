package repositories

import "storefront/internal/models"

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	ListByUser(userID string) ([]models.Order, error)
	Get(userID, orderID string) (*models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(orderID, status string) error
}
