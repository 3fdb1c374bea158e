package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product is a catalog product. Stock availability is always derived from
// the stock column via InStock, never stored on its own.
type Product struct {
	ID          string            `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title       string            `json:"title" gorm:"type:varchar(300);not null;index" validate:"required,max=300"`
	Slug        string            `json:"slug" gorm:"uniqueIndex;type:varchar(300);not null" validate:"required,max=300"`
	SKU         string            `json:"sku" gorm:"column:sku;uniqueIndex;type:varchar(100);not null" validate:"required,max=100"`
	Description string            `json:"description" gorm:"type:text"`
	Price       decimal.Decimal   `json:"price" gorm:"type:decimal(10,2);not null;index" validate:"required"`
	Currency    string            `json:"currency" gorm:"type:varchar(3);default:USD" validate:"omitempty,len=3"`
	Stock       int               `json:"stock" gorm:"not null;default:0" validate:"gte=0"`
	BrandID     *string           `json:"brand_id" gorm:"type:varchar(36);index"`
	Brand       *Brand            `json:"-" gorm:"foreignKey:BrandID;constraint:OnDelete:SET NULL"`
	CategoryID  *string           `json:"category_id" gorm:"type:varchar(36);index"`
	Category    *Category         `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Attributes  datatypes.JSONMap `json:"attributes"`
	IsActive    bool              `json:"is_active" gorm:"not null;default:true;index"`
	Media       []Media           `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// InStock reports whether any stock remains.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// GetAttribute returns a single attribute value, or def when absent.
func (p *Product) GetAttribute(key string, def interface{}) interface{} {
	if p.Attributes == nil {
		return def
	}
	if v, ok := p.Attributes[key]; ok {
		return v
	}
	return def
}
