package repository

import (
	"context"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtRepository defines debt persistence operations, owner-scoped.
// Reads exclude debts whose cascade delete is in flight (pending_delete).
type DebtRepository interface {
	Create(ctx context.Context, debt *entity.Debt) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Debt, error)
	Update(ctx context.Context, debt *entity.Debt) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, params *ListParams) ([]entity.Debt, int64, error)

	// MarkPendingDelete records cascade-delete intent before any physical
	// delete happens, so an interrupted cascade is discoverable.
	MarkPendingDelete(ctx context.Context, ownerID, id uuid.UUID) error

	// ReplaceItems swaps the debt's line items and persists the debt's
	// recomputed totals and status in a single transaction.
	ReplaceItems(ctx context.Context, debt *entity.Debt, items []entity.DebtItem) error

	// RecordPayment inserts the payment and persists the debt's updated
	// paidAmount and status as one transaction: the two physical writes
	// are a single logical unit.
	RecordPayment(ctx context.Context, payment *entity.DebtPayment, debt *entity.Debt) error

	// Outstanding sums the balances of the owner's unpaid debts.
	Outstanding(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error)
}

// DebtPaymentRepository defines payment persistence operations, owner-scoped.
type DebtPaymentRepository interface {
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.DebtPayment, error)
	ListByDebt(ctx context.Context, ownerID, debtID uuid.UUID) ([]entity.DebtPayment, error)
	DeleteByDebt(ctx context.Context, ownerID, debtID uuid.UUID) (int64, error)

	// ListOrphans returns payments whose parent debt no longer exists or
	// is stuck in pending_delete; input to the cascade repair job.
	ListOrphans(ctx context.Context, ownerID uuid.UUID) ([]entity.DebtPayment, error)
}
