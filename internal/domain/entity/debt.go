package entity

import (
	"time"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Debt represents money owed by a customer. Status and balance are never
// set directly: they are derived from PaidAmount and TotalAmount through
// Recalculate, the single derived-state calculator for the whole system.
type Debt struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"owner_id"`
	CustomerID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"customer_id"`
	CustomerName  string            `gorm:"size:255;not null" json:"customer_name"`
	CustomerPhone *string           `gorm:"size:50" json:"customer_phone,omitempty"`
	Description   string            `gorm:"type:text" json:"description"`
	Items         []DebtItem        `gorm:"foreignKey:DebtID" json:"items,omitempty"`
	TotalAmount   decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	PaidAmount    decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"paid_amount"`
	Status        enum.DebtStatus   `gorm:"size:20;not null;default:'pending'" json:"status"`
	DeleteStatus  enum.DeleteStatus `gorm:"size:20;not null;default:'active'" json:"delete_status"`
	Date          time.Time         `gorm:"not null;index" json:"date"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	DeletedAt     gorm.DeletedAt    `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new debt
func (d *Debt) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Debt model
func (Debt) TableName() string {
	return "debts"
}

// Balance returns the outstanding amount, floored at zero.
func (d *Debt) Balance() decimal.Decimal {
	balance := d.TotalAmount.Sub(d.PaidAmount)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// Recalculate re-derives Status from PaidAmount and TotalAmount:
// paid when paidAmount >= totalAmount, partial when 0 < paidAmount <
// totalAmount, pending when paidAmount == 0. Must be called on every
// mutation that touches either amount.
func (d *Debt) Recalculate() {
	switch {
	case d.PaidAmount.GreaterThanOrEqual(d.TotalAmount):
		d.Status = enum.DebtStatusPaid
	case d.PaidAmount.IsPositive():
		d.Status = enum.DebtStatusPartial
	default:
		d.Status = enum.DebtStatusPending
	}
}

// SumItems returns the total of the debt's line items.
func (d *Debt) SumItems() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.Total)
	}
	return total
}

// DebtItem is a single line item within a debt.
type DebtItem struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	DebtID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"debt_id"`
	ItemName string          `gorm:"size:255;not null" json:"item_name"`
	Quantity int             `gorm:"not null" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Total    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	Date     time.Time       `gorm:"not null" json:"date"`
}

// BeforeCreate generates a UUID before creating a new debt item
func (i *DebtItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the DebtItem model
func (DebtItem) TableName() string {
	return "debt_items"
}

// DebtPayment records a payment against a debt. Amount must be positive
// and no greater than the debt's balance at the time of the payment.
type DebtPayment struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	DebtID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"debt_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Date        time.Time       `gorm:"not null" json:"date"`
	Description *string         `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new debt payment
func (p *DebtPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the DebtPayment model
func (DebtPayment) TableName() string {
	return "debt_payments"
}
