package repository

import (
	"context"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/google/uuid"
)

// ProductRepository defines product persistence operations. Every call is
// scoped to the owning identity; a lookup outside that scope behaves as
// not found.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, params *ListParams) ([]entity.Product, int64, error)

	// DecrementStock atomically reduces stock by amount, flooring at zero.
	DecrementStock(ctx context.Context, ownerID, id uuid.UUID, amount int) error
}
