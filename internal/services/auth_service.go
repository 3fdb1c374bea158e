package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token lifetimes and lockout policy.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour

	maxLoginAttempts = 5
	lockoutWindow    = 15 * time.Minute
	resetTokenTTL    = time.Hour
	verifyTokenTTL   = 24 * time.Hour
)

// Domain errors surfaced to handlers.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked due to too many failed login attempts, try again in 15 minutes")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
	ErrVerifyTokenInvalid = errors.New("invalid or expired verification token")
	ErrWrongPassword      = errors.New("incorrect password")
)

// TokenPair is a freshly issued access/refresh token pair. Handlers place
// both in HTTP-only cookies, never in response bodies.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles registration, login with lockout, token issuance and
// the password lifecycle. Lockout counters, reset tokens and the refresh
// blacklist live in the shared cache so behavior stays correct across
// server instances.
type AuthService struct {
	userRepo  repositories.UserRepository
	store     cache.Store
	jwtSecret []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, store cache.Store, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		store:     store,
		jwtSecret: []byte(jwtSecret),
	}
}

func loginAttemptsKey(email string) string {
	return "login_attempts:" + strings.ToLower(email)
}

func blacklistKey(jti string) string {
	return "token_blacklist:" + jti
}

func resetTokenKey(uid, token string) string {
	return fmt.Sprintf("password_reset:%s:%s", uid, token)
}

func verifyTokenKey(uid, token string) string {
	return fmt.Sprintf("email_verify:%s:%s", uid, token)
}

// Register validates password strength and email uniqueness, creates the
// user with a bcrypt hash and issues a fresh token pair.
func (s *AuthService) Register(ctx context.Context, user *models.User, password string) (*TokenPair, error) {
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}
	if existing, err := s.userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	user.IsActive = true

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return s.issueTokens(user)
}

// loginAttempts reads the current failure count for an email.
func (s *AuthService) loginAttempts(ctx context.Context, email string) int {
	val, err := s.store.Get(ctx, loginAttemptsKey(email))
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(val)
	return n
}

func (s *AuthService) recordFailedLogin(ctx context.Context, email string) {
	if _, err := s.store.Increment(ctx, loginAttemptsKey(email), lockoutWindow); err != nil {
		log.Printf("failed to record login attempt for %s: %v", email, err)
	}
}

// Login authenticates a user by email and password. Once five failures
// accumulate inside the lockout window the email is rejected outright,
// without checking the password; a successful login clears the counter.
// The invalid-credentials error never reveals whether the email exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	if s.loginAttempts(ctx, email) >= maxLoginAttempts {
		return nil, nil, ErrAccountLocked
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		s.recordFailedLogin(ctx, email)
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.recordFailedLogin(ctx, email)
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrAccountInactive
	}

	if err := s.store.Delete(ctx, loginAttemptsKey(email)); err != nil {
		log.Printf("failed to clear login attempts for %s: %v", email, err)
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// issueTokens mints a short-lived access token and a longer-lived refresh
// token. The refresh token carries a jti so it can be blacklisted on logout.
func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"type":    "access",
		"iat":     now.Unix(),
		"exp":     now.Add(AccessTokenTTL).Unix(),
	})
	accessString, err := access.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"type":    "refresh",
		"jti":     uuid.New().String(),
		"iat":     now.Unix(),
		"exp":     now.Add(RefreshTokenTTL).Unix(),
	})
	refreshString, err := refresh.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessString, RefreshToken: refreshString}, nil
}

func (s *AuthService) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken checks an access token and returns the user ID and
// email embedded in it.
func (s *AuthService) ValidateAccessToken(tokenString string) (userID, email string, err error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return "", "", err
	}
	if claims["type"] != "access" {
		return "", "", ErrInvalidToken
	}
	userID, _ = claims["user_id"].(string)
	email, _ = claims["email"].(string)
	if userID == "" {
		return "", "", ErrInvalidToken
	}
	return userID, email, nil
}

// parseRefreshToken validates a refresh token and rejects blacklisted ones.
func (s *AuthService) parseRefreshToken(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims["type"] != "refresh" {
		return nil, ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, ErrInvalidToken
	}
	if _, err := s.store.Get(ctx, blacklistKey(jti)); err == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh validates a refresh token and mints a new access token. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.parseRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	userID, _ := claims["user_id"].(string)
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", ErrInvalidToken
	}

	now := time.Now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"type":    "access",
		"iat":     now.Unix(),
		"exp":     now.Add(AccessTokenTTL).Unix(),
	})
	accessString, err := access.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return accessString, nil
}

// Logout blacklists the presented refresh token for the remainder of its
// lifetime. An invalid or absent token is not an error: the caller clears
// the session cookies regardless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	claims, err := s.parseRefreshToken(ctx, refreshToken)
	if err != nil {
		return
	}
	jti, _ := claims["jti"].(string)
	exp, _ := claims["exp"].(float64)
	ttl := time.Until(time.Unix(int64(exp), 0))
	if ttl <= 0 {
		return
	}
	if err := s.store.Set(ctx, blacklistKey(jti), "1", ttl); err != nil {
		log.Printf("failed to blacklist refresh token: %v", err)
	}
}

// RequestPasswordReset generates a single-use reset token bound to the
// user, valid for one hour. A non-existent or inactive email yields empty
// values with no error so callers can answer identically either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (uid, token string, err error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil || !user.IsActive {
		return "", "", nil
	}
	token = uuid.New().String()
	if err := s.store.Set(ctx, resetTokenKey(user.ID, token), user.ID, resetTokenTTL); err != nil {
		return "", "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return user.ID, token, nil
}

// ConfirmPasswordReset validates a (uid, token) pair, sets the new
// password and invalidates the token so it cannot be replayed.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword string) error {
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	key := resetTokenKey(uid, token)
	cached, err := s.store.Get(ctx, key)
	if err != nil || cached != uid {
		return ErrResetTokenInvalid
	}
	user, err := s.userRepo.GetByID(uid)
	if err != nil {
		return ErrResetTokenInvalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(user.ID, string(hashed)); err != nil {
		return fmt.Errorf("failed to set new password: %w", err)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		log.Printf("failed to invalidate reset token: %v", err)
	}
	return nil
}

// RequestEmailVerification generates a single-use verification token bound
// to the user, valid for a day. An already-verified user yields an empty
// token with no error.
func (s *AuthService) RequestEmailVerification(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if user.EmailVerified {
		return "", nil
	}
	token := uuid.New().String()
	if err := s.store.Set(ctx, verifyTokenKey(user.ID, token), user.ID, verifyTokenTTL); err != nil {
		return "", fmt.Errorf("failed to store verification token: %w", err)
	}
	return token, nil
}

// ConfirmEmailVerification validates a verification token for the user,
// marks the email verified and invalidates the token.
func (s *AuthService) ConfirmEmailVerification(ctx context.Context, userID, token string) error {
	key := verifyTokenKey(userID, token)
	cached, err := s.store.Get(ctx, key)
	if err != nil || cached != userID {
		return ErrVerifyTokenInvalid
	}
	if err := s.userRepo.SetEmailVerified(userID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		log.Printf("failed to invalidate verification token: %v", err)
	}
	return nil
}

// ChangePassword sets a new password after verifying the current one.
// Existing tokens stay valid until their natural expiry.
func (s *AuthService) ChangePassword(userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(user.ID, string(hashed)); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// GetUser loads a user by ID.
func (s *AuthService) GetUser(userID string) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}
