package models

import "time"

// Media is an image or video attached to a product. Rows are owned by the
// product and deleted with it; listings order by (sort_order, created_at).
type Media struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);index;not null" validate:"required"`
	URL       string    `json:"url" gorm:"not null" validate:"required,url"`
	AltText   string    `json:"alt_text" gorm:"type:varchar(200)" validate:"omitempty,max=200"`
	Width     *int      `json:"width"`
	Height    *int      `json:"height"`
	SortOrder int       `json:"order" gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
