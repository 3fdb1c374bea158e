package services

import (
	"errors"
	"strings"
	"unicode"
)

const minPasswordLength = 8

const specialCharacters = `!@#$%^&*(),.?":{}|<>`

// weakPasswords is a fixed deny-list of common passwords, rejected
// regardless of character composition.
var weakPasswords = map[string]struct{}{
	"password": {}, "password123": {}, "12345678": {}, "qwerty": {},
	"abc123": {}, "letmein": {}, "welcome": {}, "monkey": {},
	"1234567890": {}, "password1": {}, "admin": {}, "root": {},
	"user": {}, "test": {}, "guest": {}, "demo": {},
}

// ValidatePasswordStrength enforces the password policy used by
// registration, password reset and password change: minimum length,
// upper/lower/digit/special character presence, and the weak-password
// deny-list. The first violated rule is reported.
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return errors.New("password must contain at least 8 characters")
	}
	if _, ok := weakPasswords[strings.ToLower(password)]; ok {
		return errors.New("password is too common and weak")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialCharacters, r):
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return errors.New("password must contain at least one uppercase letter")
	case !hasLower:
		return errors.New("password must contain at least one lowercase letter")
	case !hasDigit:
		return errors.New("password must contain at least one digit")
	case !hasSpecial:
		return errors.New(`password must contain at least one special character (!@#$%^&*(),.?":{}|<>)`)
	}
	return nil
}
