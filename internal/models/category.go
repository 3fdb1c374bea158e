package models

import "time"

// Category is a node in the self-referencing category tree.
// A nil ParentID marks a root category.
type Category struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null;index:idx_categories_parent_name,priority:2" validate:"required,max=200"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;type:varchar(200);not null" validate:"required,max=200"`
	ParentID    *string   `json:"parent_id" gorm:"type:varchar(36);index:idx_categories_parent_name,priority:1"`
	Parent      *Category `json:"-" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
