package service

import (
	"context"
	"sync"
	"time"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SyncReport summarises one reconciliation pass.
type SyncReport struct {
	Flushed      int       `json:"flushed"`
	Failed       int       `json:"failed"`
	DataVersion  int64     `json:"data_version"`
	LastSyncTime time.Time `json:"last_sync_time"`
}

type ownerState struct {
	version  int64
	lastSync time.Time
}

// Reconciler tracks a monotonic data version per owner and replays
// locally cached writes to the remote store on reconnect. The version is
// a cache-invalidation token: consumers compare it, never interpret it.
type Reconciler struct {
	mirror Mirror
	remote repository.SyncRepository
	audit  *AuditLogger
	log    *logrus.Logger

	mu     sync.Mutex
	owners map[uuid.UUID]*ownerState
}

// NewReconciler creates the reconciler. audit may be nil in tests.
func NewReconciler(mirror Mirror, remote repository.SyncRepository, audit *AuditLogger, log *logrus.Logger) *Reconciler {
	return &Reconciler{
		mirror: mirror,
		remote: remote,
		audit:  audit,
		log:    log,
		owners: make(map[uuid.UUID]*ownerState),
	}
}

func (r *Reconciler) state(ownerID uuid.UUID) *ownerState {
	if s, ok := r.owners[ownerID]; ok {
		return s
	}
	s := &ownerState{}
	r.owners[ownerID] = s
	return s
}

// Current returns the owner's data version, zero if never bumped.
func (r *Reconciler) Current(ownerID uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state(ownerID).version
}

// Bump advances the owner's data version and returns the new value.
// Every change signal converges here: successful local mutations via the
// mutation recorder, and any remote-origin change notification has the
// same effect as a refresh, the version moves and consumers refetch.
func (r *Reconciler) Bump(ownerID uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.state(ownerID)
	s.version++
	return s.version
}

// LastSync returns when the owner last completed a reconciliation pass,
// zero time if never.
func (r *Reconciler) LastSync(ownerID uuid.UUID) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state(ownerID).lastSync
}

// RefreshAll reconciles the owner's ledger with the remote store: every
// pending cache entry is replayed (tombstones as deletes, the rest as
// last-writer-wins upserts), acknowledged entries flip to synced, and the
// data version advances. Called on login and on reconnect.
//
// Entries whose replay fails stay pending and are retried on the next
// pass; a partial flush is reported, not fatal.
func (r *Reconciler) RefreshAll(ctx context.Context, sess *session.Session) (*SyncReport, error) {
	entries, err := r.mirror.ListPending(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{}
	for _, entry := range entries {
		if err := r.replay(ctx, entry); err != nil {
			report.Failed++
			r.log.WithError(err).WithFields(logrus.Fields{
				"owner_id":  entry.OwnerID,
				"kind":      entry.Kind,
				"record_id": entry.RecordID,
			}).Warn("Pending write replay failed, will retry")
			continue
		}
		report.Flushed++
	}

	now := time.Now()
	r.mu.Lock()
	s := r.state(sess.UserID)
	s.version++
	s.lastSync = now
	report.DataVersion = s.version
	report.LastSyncTime = now
	r.mu.Unlock()

	if r.audit != nil && report.Flushed > 0 {
		r.audit.Log(ctx, sess, enum.AuditActionSync, "", uuid.Nil,
			"Replayed locally cached writes to the record store", nil, report)
	}
	return report, nil
}

func (r *Reconciler) replay(ctx context.Context, entry cacheEntry) error {
	if entry.Deleted {
		if err := r.remote.Remove(ctx, entry.OwnerID, entry.Kind, entry.RecordID); err != nil {
			return err
		}
		return r.mirror.Remove(ctx, entry.OwnerID, entry.Kind, entry.RecordID)
	}
	if err := r.remote.Upsert(ctx, entry.Kind, entry.Payload); err != nil {
		return err
	}
	return r.mirror.MarkSynced(ctx, entry.OwnerID, entry.Kind, entry.RecordID)
}

// PendingWrites lists the owner's unacknowledged local writes so a client
// can show what has not reached the remote store yet.
func (r *Reconciler) PendingWrites(ctx context.Context, sess *session.Session) ([]cacheEntry, error) {
	return r.mirror.ListPending(ctx, sess.UserID)
}
