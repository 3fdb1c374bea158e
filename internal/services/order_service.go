package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrEmptyCart is returned when checkout is attempted with no cart items.
var ErrEmptyCart = errors.New("cart is empty")

// OrderService handles order creation from carts and order queries.
type OrderService struct {
	orders   repositories.OrderRepository
	carts    repositories.CartRepository
	products repositories.ProductRepository
	mqClient *rabbitmq.Client
}

// NewOrderService creates a new OrderService. mqClient may be nil; event
// publication is then skipped.
func NewOrderService(orders repositories.OrderRepository, carts repositories.CartRepository, products repositories.ProductRepository, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		products: products,
		mqClient: mqClient,
	}
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:16]
}

// Checkout turns the user's cart into a pending order. Stock is taken with
// conditional decrements so two concurrent checkouts cannot both claim the
// last unit; on failure the decrements already made are returned.
func (s *OrderService) Checkout(userID string) (*models.Order, error) {
	items, err := s.carts.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	type claimed struct {
		productID string
		qty       int
	}
	var decremented []claimed
	restock := func() {
		for _, c := range decremented {
			if err := s.products.IncrementStock(c.productID, c.qty); err != nil {
				log.Printf("failed to restock product %s after aborted checkout: %v", c.productID, err)
			}
		}
	}

	total := decimal.Zero
	currency := "USD"
	for _, item := range items {
		if item.Product == nil || !item.Product.IsActive {
			restock()
			return nil, ErrProductUnavailable
		}
		if err := s.products.DecrementStock(item.ProductID, item.Quantity); err != nil {
			restock()
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return nil, fmt.Errorf("%s: %w", item.Product.Title, repositories.ErrInsufficientStock)
			}
			return nil, err
		}
		decremented = append(decremented, claimed{productID: item.ProductID, qty: item.Quantity})
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		currency = item.Product.Currency
	}

	order := &models.Order{
		UserID:      userID,
		OrderNumber: newOrderNumber(),
		Status:      models.OrderStatusPending,
		TotalAmount: total,
		Currency:    currency,
	}
	if err := s.orders.Create(order); err != nil {
		restock()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.carts.DeleteByUser(userID); err != nil {
		log.Printf("failed to empty cart for user %s after checkout: %v", userID, err)
	}

	if s.mqClient != nil {
		event := rabbitmq.OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			Status:      order.Status,
			TotalAmount: order.TotalAmount.String(),
			Currency:    order.Currency,
		}
		if err := s.mqClient.PublishOrderCreated(event); err != nil {
			log.Printf("failed to publish order created event for order %s: %v", order.ID, err)
		}
	}

	return order, nil
}

// ListOrders retrieves a user's orders.
func (s *OrderService) ListOrders(userID string) ([]models.Order, error) {
	return s.orders.ListByUser(userID)
}

// GetOrder retrieves one order owned by the user.
func (s *OrderService) GetOrder(userID, orderID string) (*models.Order, error) {
	return s.orders.Get(userID, orderID)
}

// UpdateOrderStatus moves an order to a new status.
func (s *OrderService) UpdateOrderStatus(orderID, status string) error {
	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("invalid order status: %s", status)
	}
	return s.orders.UpdateStatus(orderID, status)
}
