package models

import "time"

// User is an account holder. Email is the login identifier.
type User struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Email         string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" validate:"required,email"`
	Password      string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	FirstName     string    `json:"first_name" gorm:"type:varchar(100)" validate:"omitempty,max=100"`
	LastName      string    `json:"last_name" gorm:"type:varchar(100)" validate:"omitempty,max=100"`
	IsActive      bool      `json:"is_active" gorm:"not null;default:true"`
	IsStaff       bool      `json:"is_staff" gorm:"not null;default:false"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
