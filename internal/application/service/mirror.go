package service

import (
	"context"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/infrastructure/cache"
	"github.com/google/uuid"
)

// Mirror is the local-cache surface the services depend on. Satisfied by
// cache.Store; narrowed to an interface so services can be tested without
// an embedded database.
type Mirror interface {
	Put(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID, record interface{}, status enum.SyncStatus) error
	MarkDeleted(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error
	MarkSynced(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error
	Remove(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error
	Get(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) (*cache.Entry, error)
	ListKind(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind) ([]cache.Entry, error)
	ListPending(ctx context.Context, ownerID uuid.UUID) ([]cache.Entry, error)
	CountPending(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// cacheEntry keeps service signatures short.
type cacheEntry = cache.Entry

var _ Mirror = (*cache.Store)(nil)
