package models

import "time"

// Brand is a flat (non-hierarchical) product brand.
type Brand struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null" validate:"required,max=200"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;type:varchar(200);not null" validate:"required,max=200"`
	Description string    `json:"description" gorm:"type:text"`
	LogoURL     string    `json:"logo_url" validate:"omitempty,url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
