package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the inventory
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name         string          `gorm:"size:255;not null" json:"name"`
	CostPrice    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"cost_price"`
	SellingPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"selling_price"`
	Stock        int             `gorm:"not null;default:0" json:"stock"`
	Category     *string         `gorm:"size:255" json:"category,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
