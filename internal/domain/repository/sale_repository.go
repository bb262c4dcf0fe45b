package repository

import (
	"context"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleRepository defines sale persistence operations, owner-scoped.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Sale, error)
	Update(ctx context.Context, sale *entity.Sale) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, params *ListParams) ([]entity.Sale, int64, error)

	// Totals sums totalAmount and profit over the owner's sales in range.
	Totals(ctx context.Context, ownerID uuid.UUID, dateRange *DateRange) (total, profit decimal.Decimal, err error)
}

// ExpenseRepository defines expense persistence operations, owner-scoped.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Expense, error)
	Update(ctx context.Context, expense *entity.Expense) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, params *ListParams) ([]entity.Expense, int64, error)

	// Total sums the owner's expenses in range.
	Total(ctx context.Context, ownerID uuid.UUID, dateRange *DateRange) (decimal.Decimal, error)
}
