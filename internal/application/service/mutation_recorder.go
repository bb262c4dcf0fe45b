package service

import (
	"context"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type versionBumper interface {
	Bump(ownerID uuid.UUID) int64
}

// MutationRecorder is the shared tail of every write path: mirror the
// record locally, append the audit entry, publish the change event and
// advance the owner's data version. All of it is best-effort relative to
// the store write that already happened; failures here are logged, never
// propagated.
type MutationRecorder struct {
	mirror   Mirror
	audit    *AuditLogger
	events   repository.EventPublisher
	versions versionBumper
	log      *logrus.Logger
}

// NewMutationRecorder creates the recorder. events may be nil when the
// realtime hub is unavailable; the ledger then degrades to manual refresh.
func NewMutationRecorder(mirror Mirror, audit *AuditLogger, events repository.EventPublisher, versions versionBumper, log *logrus.Logger) *MutationRecorder {
	return &MutationRecorder{
		mirror:   mirror,
		audit:    audit,
		events:   events,
		versions: versions,
		log:      log,
	}
}

// Committed finishes a mutation the remote store has acknowledged: the
// mirror copy is synced and the usual audit/notify/bump tail runs.
func (m *MutationRecorder) Committed(ctx context.Context, sess *session.Session, kind enum.RecordKind, action enum.AuditAction, recordID uuid.UUID, description string, prev, next, record interface{}) {
	if record != nil {
		if err := m.mirror.Put(ctx, sess.UserID, kind, recordID, record, enum.SyncStatusSynced); err != nil {
			m.logMirrorFailure(sess, kind, recordID, err)
		}
	}
	m.finish(ctx, sess, kind, action, recordID, description, prev, next)
}

// Deferred finishes a mutation the remote store has not seen, either
// because the session is offline or because the remote write failed. The
// mirror copy stays pending until the reconciler replays it.
func (m *MutationRecorder) Deferred(ctx context.Context, sess *session.Session, kind enum.RecordKind, action enum.AuditAction, recordID uuid.UUID, description string, prev, next, record interface{}) {
	if record != nil {
		if err := m.mirror.Put(ctx, sess.UserID, kind, recordID, record, enum.SyncStatusPending); err != nil {
			m.logMirrorFailure(sess, kind, recordID, err)
		}
	}
	m.finish(ctx, sess, kind, action, recordID, description, prev, next)
}

// CommittedDelete finishes a delete the remote store has acknowledged:
// the mirror entry is dropped outright.
func (m *MutationRecorder) CommittedDelete(ctx context.Context, sess *session.Session, kind enum.RecordKind, recordID uuid.UUID, description string, prev interface{}) {
	if err := m.mirror.Remove(ctx, sess.UserID, kind, recordID); err != nil {
		m.logMirrorFailure(sess, kind, recordID, err)
	}
	m.finish(ctx, sess, kind, enum.AuditActionDelete, recordID, description, prev, nil)
}

// DeferredDelete tombstones the mirror entry so the delete replays on
// reconnect.
func (m *MutationRecorder) DeferredDelete(ctx context.Context, sess *session.Session, kind enum.RecordKind, recordID uuid.UUID, description string, prev interface{}) {
	if err := m.mirror.MarkDeleted(ctx, sess.UserID, kind, recordID); err != nil {
		m.logMirrorFailure(sess, kind, recordID, err)
	}
	m.finish(ctx, sess, kind, enum.AuditActionDelete, recordID, description, prev, nil)
}

func (m *MutationRecorder) finish(ctx context.Context, sess *session.Session, kind enum.RecordKind, action enum.AuditAction, recordID uuid.UUID, description string, prev, next interface{}) {
	m.audit.Log(ctx, sess, action, kind, recordID, description, prev, next)

	if m.events != nil {
		m.events.Publish(repository.MutationEvent{
			OwnerID:  sess.UserID,
			Kind:     kind,
			Action:   action,
			RecordID: recordID,
		})
	}
	if m.versions != nil {
		m.versions.Bump(sess.UserID)
	}
}

func (m *MutationRecorder) logMirrorFailure(sess *session.Session, kind enum.RecordKind, recordID uuid.UUID, err error) {
	m.log.WithError(err).WithFields(logrus.Fields{
		"owner_id":  sess.UserID,
		"kind":      kind,
		"record_id": recordID,
	}).Error("Local cache write failed")
}
