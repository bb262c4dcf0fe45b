package repository

import (
	"context"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/google/uuid"
)

// UserRepository defines identity persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, params *ListParams) ([]entity.User, int64, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role enum.Role) error
	Count(ctx context.Context) (int64, error)
}
