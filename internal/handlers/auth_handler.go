package handlers

import (
	"errors"
	"log"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthRateLimits carries the per-endpoint rate limiters wired in by main.
// Nil entries mean no limit, which tests rely on.
type AuthRateLimits struct {
	Login         fiber.Handler
	Register      fiber.Handler
	PasswordReset fiber.Handler
}

func passThrough(c *fiber.Ctx) error {
	return c.Next()
}

func orPassThrough(h fiber.Handler) fiber.Handler {
	if h == nil {
		return passThrough
	}
	return h
}

// AuthHandler handles HTTP requests for authentication. Tokens travel in
// HTTP-only cookies, never in response bodies.
type AuthHandler struct {
	authService   *services.AuthService
	validate      *validator.Validate
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies should be true
// everywhere except local development.
func NewAuthHandler(authService *services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		validate:      validator.New(),
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler, limits AuthRateLimits) {
	auth := router.Group("/auth")
	auth.Post("/register", orPassThrough(limits.Register), h.HandleRegister)
	auth.Post("/login", orPassThrough(limits.Login), h.HandleLogin)
	auth.Post("/logout", authRequired, h.HandleLogout)
	auth.Post("/refresh", h.HandleRefresh)
	auth.Get("/me", authRequired, h.HandleMe)
	auth.Post("/password/reset", orPassThrough(limits.PasswordReset), h.HandlePasswordResetRequest)
	auth.Post("/password/reset/confirm", h.HandlePasswordResetConfirm)
	auth.Post("/password/change", authRequired, h.HandleChangePassword)
	auth.Post("/verify/email", authRequired, h.HandleVerifyEmailRequest)
	auth.Post("/verify/email/confirm", authRequired, h.HandleVerifyEmailConfirm)
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, name, value string, maxAge time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, pair *services.TokenPair) {
	h.setCookie(c, middleware.AccessTokenCookie, pair.AccessToken, services.AccessTokenTTL)
	h.setCookie(c, middleware.RefreshTokenCookie, pair.RefreshToken, services.RefreshTokenTTL)
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   h.secureCookies,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	FirstName       string `json:"first_name" validate:"omitempty,max=100"`
	LastName        string `json:"last_name" validate:"omitempty,max=100"`
}

// HandleRegister registers a new user and starts a session.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
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
	if req.Password != req.PasswordConfirm {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"password_confirm": "Passwords must match"},
		})
	}

	user := &models.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	pair, err := h.authService.Register(c.UserContext(), user, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"errors": fiber.Map{"email": "Email already registered"},
			})
		}
		// Remaining failures at this point are password policy violations.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"password": err.Error()},
		})
	}

	h.setAuthCookies(c, pair)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"user":    newUserResponse(user),
	})
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin authenticates a user and starts a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
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

	user, pair, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountLocked):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Account temporarily locked due to too many failed login attempts. Try again in 15 minutes.",
			})
		case errors.Is(err, services.ErrAccountInactive):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Account is inactive",
			})
		default:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid credentials",
			})
		}
	}

	h.setAuthCookies(c, pair)
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    newUserResponse(user),
	})
}

// HandleLogout blacklists the refresh token when present and valid, and
// always clears the session cookies.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	h.authService.Logout(c.UserContext(), c.Cookies(middleware.RefreshTokenCookie))
	h.clearAuthCookies(c)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// HandleRefresh mints a new access token from the refresh token cookie.
// The refresh token is not rotated. On failure both cookies are cleared.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(middleware.RefreshTokenCookie)
	if refreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Refresh token not found",
		})
	}

	accessToken, err := h.authService.Refresh(c.UserContext(), refreshToken)
	if err != nil {
		h.clearAuthCookies(c)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid refresh token",
		})
	}

	h.setCookie(c, middleware.AccessTokenCookie, accessToken, services.AccessTokenTTL)
	return c.JSON(fiber.Map{"message": "Token refreshed successfully"})
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(currentUserID(c))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}
	return c.JSON(newUserResponse(user))
}

// PasswordResetRequest is the request body for a password reset request.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandlePasswordResetRequest generates a reset token. The response is
// identical whether or not the email exists, so account existence never
// leaks.
func (h *AuthHandler) HandlePasswordResetRequest(c *fiber.Ctx) error {
	var req PasswordResetRequest
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

	uid, token, err := h.authService.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		log.Printf("Error creating password reset token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not process password reset request",
		})
	}
	if uid != "" {
		// Delivery would go through the mailer; logged until that exists.
		log.Printf("password reset requested for user %s, token %s", uid, token)
	}
	return c.JSON(fiber.Map{
		"message": "If that email exists, a password reset link has been sent",
	})
}

// PasswordResetConfirm is the request body for confirming a reset.
type PasswordResetConfirm struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// HandlePasswordResetConfirm validates the (uid, token) pair and sets the
// new password. The token is single-use.
func (h *AuthHandler) HandlePasswordResetConfirm(c *fiber.Ctx) error {
	var req PasswordResetConfirm
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
	if req.Password != req.PasswordConfirm {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"password_confirm": "Passwords must match"},
		})
	}

	err := h.authService.ConfirmPasswordReset(c.UserContext(), req.UID, req.Token, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrResetTokenInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid or expired reset token",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"password": err.Error()},
		})
	}
	return c.JSON(fiber.Map{"message": "Password reset successful"})
}

// HandleVerifyEmailRequest issues an email verification token for the
// authenticated user.
func (h *AuthHandler) HandleVerifyEmailRequest(c *fiber.Ctx) error {
	token, err := h.authService.RequestEmailVerification(c.UserContext(), currentUserID(c))
	if err != nil {
		log.Printf("Error creating email verification token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not start email verification",
		})
	}
	if token == "" {
		return c.JSON(fiber.Map{"message": "Email is already verified"})
	}
	// Delivery would go through the mailer; logged until that exists.
	log.Printf("email verification requested for user %s, token %s", currentUserID(c), token)
	return c.JSON(fiber.Map{"message": "Verification email sent"})
}

// VerifyEmailConfirm is the request body for confirming email ownership.
type VerifyEmailConfirm struct {
	Token string `json:"token" validate:"required"`
}

// HandleVerifyEmailConfirm validates the verification token and marks the
// authenticated user's email as verified. The token is single-use.
func (h *AuthHandler) HandleVerifyEmailConfirm(c *fiber.Ctx) error {
	var req VerifyEmailConfirm
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

	err := h.authService.ConfirmEmailVerification(c.UserContext(), currentUserID(c), req.Token)
	if err != nil {
		if errors.Is(err, services.ErrVerifyTokenInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid or expired verification token",
			})
		}
		log.Printf("Error confirming email verification: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not verify email",
		})
	}
	return c.JSON(fiber.Map{"message": "Email verified successfully"})
}

// ChangePasswordRequest is the request body for an authenticated password
// change.
type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}

// HandleChangePassword sets a new password after verifying the current
// one. Existing tokens stay valid until natural expiry.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
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
	if req.NewPassword != req.NewPasswordConfirm {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"new_password_confirm": "Passwords must match"},
		})
	}

	err := h.authService.ChangePassword(currentUserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, services.ErrWrongPassword) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"errors": fiber.Map{"old_password": "Incorrect password"},
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": fiber.Map{"new_password": err.Error()},
		})
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}
