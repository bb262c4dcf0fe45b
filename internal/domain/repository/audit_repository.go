package repository

import (
	"context"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/google/uuid"
)

// AuditFilterParams filters audit log queries.
type AuditFilterParams struct {
	ListParams
	ActorID *uuid.UUID
	Action  enum.AuditAction
	Table   enum.RecordKind
}

// AuditRepository appends and queries the immutable audit trail. There is
// deliberately no update or delete.
type AuditRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	List(ctx context.Context, params *AuditFilterParams) ([]entity.AuditLog, int64, error)
}
