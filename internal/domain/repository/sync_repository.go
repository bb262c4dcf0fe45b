package repository

import (
	"context"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/google/uuid"
)

// SyncRepository replays locally cached writes against the remote store
// during reconciliation. Payloads are the JSON snapshots the local cache
// holds; last writer wins at the remote store, so replay is a plain
// upsert per record with no merge step.
type SyncRepository interface {
	Upsert(ctx context.Context, kind enum.RecordKind, payload []byte) error
	Remove(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error
}
