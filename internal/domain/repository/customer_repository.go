package repository

import (
	"context"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/google/uuid"
)

// CustomerRepository defines customer persistence operations, owner-scoped.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, params *ListParams) ([]entity.Customer, int64, error)
}
