package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/cache"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestApp wires the full HTTP surface against an in-memory database and
// cache, with no rate limiting so tests can hammer endpoints freely.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.Media{},
		&models.CartItem{},
		&models.Order{},
	))

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	brandRepo := repositories.NewGORMBrandRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	authService := services.NewAuthService(userRepo, cache.NewMemoryStore(), "integration-test-secret")
	catalogService := services.NewCatalogService(productRepo, categoryRepo, brandRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, cartRepo, productRepo, nil)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authRequired := middleware.AuthRequired(authService)
	staffOnly := middleware.StaffOnly(authService)

	handlers.NewProductHandler(catalogService).RegisterRoutes(apiV1)
	handlers.NewCategoryHandler(catalogService).RegisterRoutes(apiV1)
	handlers.NewBrandHandler(catalogService).RegisterRoutes(apiV1)
	handlers.NewAuthHandler(authService, false).RegisterRoutes(apiV1, authRequired, handlers.AuthRateLimits{})

	authenticated := apiV1.Group("", authRequired)
	handlers.NewCartHandler(cartService).RegisterRoutes(authenticated)
	handlers.NewOrderHandler(orderService).RegisterRoutes(authenticated)

	admin := apiV1.Group("/admin", authRequired, staffOnly)
	handlers.NewProductHandler(catalogService).RegisterAdminRoutes(admin)
	handlers.NewCategoryHandler(catalogService).RegisterAdminRoutes(admin)
	handlers.NewBrandHandler(catalogService).RegisterAdminRoutes(admin)
	handlers.NewOrderHandler(orderService).RegisterAdminRoutes(admin)

	return app, db
}

func jsonRequest(method, target string, body interface{}, cookies []*http.Cookie) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

const testPassword = "Str0ng!Passw0rd"

// registerAccount registers a user over HTTP and returns the session
// cookies from the response.
func registerAccount(t *testing.T, app *fiber.App, email string) []*http.Cookie {
	t.Helper()
	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/register", fiber.Map{
		"email":            email,
		"password":         testPassword,
		"password_confirm": testPassword,
		"first_name":       "Test",
		"last_name":        "User",
	}, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	cookies := resp.Cookies()
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	require.Contains(t, names, middleware.AccessTokenCookie)
	require.Contains(t, names, middleware.RefreshTokenCookie)
	return cookies
}

func seedProduct(t *testing.T, db *gorm.DB, id, title, slug, sku string, priceStr string, stock int) {
	t.Helper()
	product := models.Product{
		ID: id, Title: title, Slug: slug, SKU: sku,
		Price: decimal.RequireFromString(priceStr), Currency: "USD",
		Stock: stock, IsActive: true,
		Attributes: datatypes.JSONMap{"color": "black"},
	}
	require.NoError(t, db.Create(&product).Error)
}

func TestRegisterAndMe(t *testing.T) {
	app, _ := newTestApp(t)
	cookies := registerAccount(t, app, "alice@example.com")

	resp, err := app.Test(jsonRequest(fiber.MethodGet, "/api/v1/auth/me", nil, cookies))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotContains(t, body, "password")
}

func TestMeRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(fiber.MethodGet, "/api/v1/auth/me", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginTokensNeverInBody(t *testing.T) {
	app, _ := newTestApp(t)
	registerAccount(t, app, "alice@example.com")

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/login", fiber.Map{
		"email":    "alice@example.com",
		"password": testPassword,
	}, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "access_token")
	assert.NotContains(t, string(raw), "refresh_token")
	assert.NotEmpty(t, resp.Cookies())
}

func TestLoginLockout(t *testing.T) {
	app, _ := newTestApp(t)
	registerAccount(t, app, "alice@example.com")

	badLogin := func() *http.Response {
		resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/login", fiber.Map{
			"email":    "alice@example.com",
			"password": "Wr0ng!Passw0rd",
		}, nil))
		require.NoError(t, err)
		return resp
	}

	for i := 0; i < 5; i++ {
		resp := badLogin()
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
	}

	// Locked out now, even with the correct password.
	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/login", fiber.Map{
		"email":    "alice@example.com",
		"password": testPassword,
	}, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRefreshAndLogout(t *testing.T) {
	app, _ := newTestApp(t)
	cookies := registerAccount(t, app, "alice@example.com")

	var refreshOnly []*http.Cookie
	for _, c := range cookies {
		if c.Name == middleware.RefreshTokenCookie {
			refreshOnly = append(refreshOnly, c)
		}
	}
	require.Len(t, refreshOnly, 1)

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/refresh", nil, refreshOnly))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var refreshedAccess bool
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AccessTokenCookie && c.Value != "" {
			refreshedAccess = true
		}
	}
	assert.True(t, refreshedAccess, "refresh must set a new access cookie")

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/logout", nil, cookies))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The blacklisted refresh token no longer works.
	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/refresh", nil, refreshOnly))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshWithoutCookie(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/refresh", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetNeverLeaksAccounts(t *testing.T) {
	app, _ := newTestApp(t)
	registerAccount(t, app, "alice@example.com")

	request := func(email string) map[string]interface{} {
		resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/password/reset", fiber.Map{
			"email": email,
		}, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		return decodeBody(t, resp)
	}

	existing := request("alice@example.com")
	missing := request("ghost@example.com")
	assert.Equal(t, existing["message"], missing["message"],
		"responses must not reveal whether the account exists")
}

func TestProductListAndFilters(t *testing.T) {
	app, db := newTestApp(t)
	seedProduct(t, db, "prod-1", "Wireless Headphones", "wireless-headphones", "WH-1", "89.99", 4)
	seedProduct(t, db, "prod-2", "Desk Lamp", "desk-lamp", "DL-1", "35.00", 0)

	resp, err := app.Test(jsonRequest(fiber.MethodGet, "/api/v1/products/", nil, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 2, body["count"])
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 20, body["page_size"])

	resp, err = app.Test(jsonRequest(fiber.MethodGet, "/api/v1/products/?in_stock=true", nil, nil))
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.EqualValues(t, 1, body["count"])

	resp, err = app.Test(jsonRequest(fiber.MethodGet, "/api/v1/products/?q=wireless", nil, nil))
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.EqualValues(t, 1, body["count"])

	// Malformed filter values are dropped, not an error.
	resp, err = app.Test(jsonRequest(fiber.MethodGet, "/api/v1/products/?min_price=cheap", nil, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.EqualValues(t, 2, body["count"])
}

func TestProductDetailNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(fiber.MethodGet, "/api/v1/products/no-such", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCategoryRoutesUnknownSlug(t *testing.T) {
	app, db := newTestApp(t)
	require.NoError(t, db.Create(&models.Category{
		ID: "cat-1", Name: "Electronics", Slug: "electronics",
	}).Error)

	for _, target := range []string{
		"/api/v1/categories/no-such",
		"/api/v1/categories/no-such/children",
		"/api/v1/categories/no-such/products",
	} {
		resp, err := app.Test(jsonRequest(fiber.MethodGet, target, nil, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, target)
	}

	resp, err := app.Test(jsonRequest(fiber.MethodGet, "/api/v1/categories/electronics", nil, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 0, body["level"])
	assert.Equal(t, true, body["is_root"])
}

func TestEmailVerificationOverHTTP(t *testing.T) {
	app, db := newTestApp(t)
	cookies := registerAccount(t, app, "alice@example.com")

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/verify/email", nil, cookies))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// A bogus token does not flip the flag.
	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/v1/auth/verify/email/confirm", fiber.Map{
		"token": "not-a-real-token",
	}, cookies))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "alice@example.com").Error)
	assert.False(t, user.EmailVerified)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	app, db := newTestApp(t)
	seedProduct(t, db, "prod-1", "Gadget", "gadget", "GA-1", "10.00", 5)
	cookies := registerAccount(t, app, "alice@example.com")

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/cart/", fiber.Map{
		"product_id": "prod-1",
		"quantity":   2,
	}, cookies))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(fiber.MethodGet, "/api/v1/cart/", nil, cookies))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/v1/orders/checkout", nil, cookies))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	order := decodeBody(t, resp)
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, "20", order["total_amount"])

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", "prod-1").Error)
	assert.Equal(t, 3, product.Stock)

	// Checking out the now-empty cart fails.
	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/v1/orders/checkout", nil, cookies))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCartRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(fiber.MethodGet, "/api/v1/cart/", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesRequireStaff(t *testing.T) {
	app, db := newTestApp(t)
	cookies := registerAccount(t, app, "alice@example.com")

	payload := fiber.Map{
		"title": "New Product",
		"slug":  "new-product",
		"sku":   "NP-1",
		"price": "19.99",
	}

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/admin/products/", payload, cookies))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	require.NoError(t, db.Model(&models.User{}).
		Where("email = ?", "alice@example.com").
		Update("is_staff", true).Error)

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/v1/admin/products/", payload, cookies))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestCreateProductRejectsBadAttributes(t *testing.T) {
	app, db := newTestApp(t)
	cookies := registerAccount(t, app, "staff@example.com")
	require.NoError(t, db.Model(&models.User{}).
		Where("email = ?", "staff@example.com").
		Update("is_staff", true).Error)

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/v1/admin/products/", fiber.Map{
		"title": "Bad Product",
		"slug":  "bad-product",
		"sku":   "BP-1",
		"price": "5.00",
		"attributes": fiber.Map{
			"weight": fiber.Map{"value": 1.5},
		},
	}, cookies))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Contains(t, body, "errors")
}
