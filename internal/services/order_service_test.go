package services_test

import (
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type checkoutFixture struct {
	orders   *services.OrderService
	carts    *services.CartService
	products repositories.ProductRepository
}

func newCheckoutFixture(t *testing.T) checkoutFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
	))

	products := repositories.NewGORMProductRepository(db)
	carts := repositories.NewGORMCartRepository(db)
	orders := repositories.NewGORMOrderRepository(db)

	seed := []models.Product{
		{ID: "prod-a", Title: "Gadget", Slug: "gadget", SKU: "GA-1",
			Price: decimal.RequireFromString("10.00"), Stock: 10, IsActive: true},
		{ID: "prod-b", Title: "Widget", Slug: "widget", SKU: "WI-1",
			Price: decimal.RequireFromString("2.50"), Stock: 2, IsActive: true},
	}
	for i := range seed {
		require.NoError(t, products.Create(&seed[i]))
	}

	return checkoutFixture{
		orders:   services.NewOrderService(orders, carts, products, nil),
		carts:    services.NewCartService(carts, products),
		products: products,
	}
}

const testUserID = "user-1"

func TestCheckout(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.carts.AddItem(testUserID, "prod-a", 3)
	require.NoError(t, err)
	_, err = f.carts.AddItem(testUserID, "prod-b", 2)
	require.NoError(t, err)

	order, err := f.orders.Checkout(testUserID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("35.00")),
		"expected 3*10.00 + 2*2.50, got %s", order.TotalAmount)
	assert.Regexp(t, `^ORD-[0-9A-F]{16}$`, order.OrderNumber)

	// Stock was claimed and the cart emptied.
	productA, err := f.products.GetByID("prod-a")
	require.NoError(t, err)
	assert.Equal(t, 7, productA.Stock)
	items, err := f.carts.ListItems(testUserID)
	require.NoError(t, err)
	assert.Empty(t, items)

	listed, err := f.orders.ListOrders(testUserID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, order.ID, listed[0].ID)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.orders.Checkout(testUserID)
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.carts.AddItem(testUserID, "prod-a", 3)
	require.NoError(t, err)
	_, err = f.carts.AddItem(testUserID, "prod-b", 5) // only 2 in stock
	require.NoError(t, err)

	_, err = f.orders.Checkout(testUserID)
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)

	// The decrement already made for prod-a must have been returned.
	productA, err := f.products.GetByID("prod-a")
	require.NoError(t, err)
	assert.Equal(t, 10, productA.Stock)

	// The cart survives a failed checkout.
	items, err := f.carts.ListItems(testUserID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCheckoutInactiveProduct(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.carts.AddItem(testUserID, "prod-b", 1)
	require.NoError(t, err)

	product, err := f.products.GetByID("prod-b")
	require.NoError(t, err)
	product.IsActive = false
	require.NoError(t, f.products.Update(product))

	_, err = f.orders.Checkout(testUserID)
	assert.ErrorIs(t, err, services.ErrProductUnavailable)
}

func TestCartUpsert(t *testing.T) {
	f := newCheckoutFixture(t)

	first, err := f.carts.AddItem(testUserID, "prod-a", 1)
	require.NoError(t, err)
	second, err := f.carts.AddItem(testUserID, "prod-a", 2)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same product must reuse the cart row")
	assert.Equal(t, 3, second.Quantity)

	items, err := f.carts.ListItems(testUserID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// Another user's cart is untouched.
	items, err = f.carts.ListItems("user-2")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.carts.AddItem(testUserID, "prod-a", 1)
	require.NoError(t, err)
	order, err := f.orders.Checkout(testUserID)
	require.NoError(t, err)

	require.NoError(t, f.orders.UpdateOrderStatus(order.ID, models.OrderStatusShipped))
	updated, err := f.orders.GetOrder(testUserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	err = f.orders.UpdateOrderStatus(order.ID, "teleported")
	assert.Error(t, err)
}
