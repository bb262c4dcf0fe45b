package repository

import (
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/google/uuid"
)

// MutationEvent is the shared variant every successful mutation is reduced
// to. The reconciler and the realtime hub treat all six record kinds
// uniformly through it; there is no per-record diff, only "something in
// this owner's data changed".
type MutationEvent struct {
	OwnerID  uuid.UUID
	Kind     enum.RecordKind
	Action   enum.AuditAction
	RecordID uuid.UUID
}

// EventPublisher receives mutation events after the store write succeeds.
type EventPublisher interface {
	Publish(event MutationEvent)
}
