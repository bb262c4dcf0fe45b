package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale represents a single sale. ProductID is nullable: manual entries
// that do not reference a catalogued product are allowed and leave stock
// untouched.
type Sale struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index" json:"product_id,omitempty"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	CostPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"cost_price"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	Profit      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"profit"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

// ComputeTotals derives totalAmount and profit from the sale's unit price,
// cost price and quantity. Called on every create and edit so the stored
// aggregates can never drift from their inputs.
func (s *Sale) ComputeTotals() {
	qty := decimal.NewFromInt(int64(s.Quantity))
	s.TotalAmount = s.UnitPrice.Mul(qty)
	s.Profit = s.UnitPrice.Sub(s.CostPrice).Mul(qty)
}
