package middleware

import (
	"strings"

	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AccessTokenCookie and RefreshTokenCookie are the cookie names carrying
// the session tokens.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// bearerToken extracts a token from an "Authorization: Bearer <token>"
// header, or returns "".
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// AuthRequired authenticates the request with an access token. The token
// is read from the HTTP-only cookie first; when the cookie is absent or
// invalid it falls back to the Authorization header so non-browser
// clients can authenticate without cookies.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var userID, email string
		var err error

		if cookie := c.Cookies(AccessTokenCookie); cookie != "" {
			userID, email, err = authService.ValidateAccessToken(cookie)
		} else {
			err = services.ErrInvalidToken
		}
		if err != nil {
			token := bearerToken(c)
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Authentication credentials were not provided",
				})
			}
			userID, email, err = authService.ValidateAccessToken(token)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired token",
				})
			}
		}

		c.Locals("user_id", userID)
		c.Locals("email", email)
		return c.Next()
	}
}

// StaffOnly allows only staff users through. Must run after AuthRequired.
func StaffOnly(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		user, err := authService.GetUser(userID)
		if err != nil || !user.IsStaff {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Staff access required",
			})
		}
		return c.Next()
	}
}
