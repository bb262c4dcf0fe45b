// Package cache is the owner-scoped local mirror of the remote record
// store. Every record is held as a JSON snapshot tagged with a sync
// status; the cache is the only store consulted when connectivity is
// unavailable and never talks to the remote store itself.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one mirrored record. Deleted entries are tombstones waiting
// for the remote delete to be replayed.
type Entry struct {
	ID         uint            `gorm:"primary_key" json:"-"`
	OwnerID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_cache_record" json:"owner_id"`
	Kind       enum.RecordKind `gorm:"size:50;not null;uniqueIndex:idx_cache_record" json:"kind"`
	RecordID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cache_record" json:"record_id"`
	Payload    []byte          `gorm:"not null" json:"payload"`
	SyncStatus enum.SyncStatus `gorm:"size:20;not null;index" json:"sync_status"`
	Deleted    bool            `gorm:"not null;default:false" json:"deleted"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName returns the table name for cache entries
func (Entry) TableName() string {
	return "cache_entries"
}

// Store persists mirror entries in the embedded database.
type Store struct {
	db *gorm.DB
}

// NewStore migrates and wraps the cache database.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Put mirrors a record. The payload is the record's JSON snapshot; status
// is pending for local-origin writes awaiting remote acknowledgement and
// synced for writes the remote store has already accepted.
func (s *Store) Put(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID, record interface{}, status enum.SyncStatus) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", kind, err)
	}

	entry := Entry{
		OwnerID:    ownerID,
		Kind:       kind,
		RecordID:   recordID,
		Payload:    payload,
		SyncStatus: status,
		Deleted:    false,
		UpdatedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "kind"}, {Name: "record_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "sync_status", "deleted", "updated_at"}),
		}).
		Create(&entry).Error
}

// MarkDeleted turns the entry into a pending tombstone so the delete can
// be replayed against the remote store on reconnect.
func (s *Store) MarkDeleted(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&Entry{}).
		Where("owner_id = ? AND kind = ? AND record_id = ?", ownerID, kind, recordID).
		Updates(map[string]interface{}{
			"deleted":     true,
			"sync_status": enum.SyncStatusPending,
			"updated_at":  time.Now(),
		}).Error
}

// MarkSynced flips an entry to synced after remote acknowledgement.
func (s *Store) MarkSynced(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&Entry{}).
		Where("owner_id = ? AND kind = ? AND record_id = ?", ownerID, kind, recordID).
		Updates(map[string]interface{}{
			"sync_status": enum.SyncStatusSynced,
			"updated_at":  time.Now(),
		}).Error
}

// Remove drops an entry outright, used once a remote delete is confirmed.
func (s *Store) Remove(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ? AND record_id = ?", ownerID, kind, recordID).
		Delete(&Entry{}).Error
}

// Get returns a single mirrored entry, nil when absent or tombstoned.
func (s *Store) Get(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) (*Entry, error) {
	var entry Entry
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ? AND record_id = ? AND deleted = ?", ownerID, kind, recordID, false).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListKind returns every live entry of one kind for the owner.
func (s *Store) ListKind(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ? AND deleted = ?", ownerID, kind, false).
		Order("updated_at DESC").
		Find(&entries).Error
	return entries, err
}

// ListPending returns the owner's unacknowledged writes, oldest first so
// replay preserves local write order.
func (s *Store) ListPending(ctx context.Context, ownerID uuid.UUID) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND sync_status = ?", ownerID, enum.SyncStatusPending).
		Order("updated_at ASC").
		Find(&entries).Error
	return entries, err
}

// CountPending reports how many writes await remote acknowledgement.
func (s *Store) CountPending(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Entry{}).
		Where("owner_id = ? AND sync_status = ?", ownerID, enum.SyncStatusPending).
		Count(&count).Error
	return count, err
}

// Reader is the read-only slice of Store the decode helpers need.
type Reader interface {
	Get(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) (*Entry, error)
	ListKind(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind) ([]Entry, error)
}

// ListAs decodes every live entry of one kind into typed records.
func ListAs[T any](ctx context.Context, s Reader, ownerID uuid.UUID, kind enum.RecordKind) ([]T, error) {
	entries, err := s.ListKind(ctx, ownerID, kind)
	if err != nil {
		return nil, err
	}
	records := make([]T, 0, len(entries))
	for _, entry := range entries {
		var record T
		if err := json.Unmarshal(entry.Payload, &record); err != nil {
			return nil, fmt.Errorf("decode cached %s %s: %w", kind, entry.RecordID, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// GetAs decodes a single mirrored record, nil when absent.
func GetAs[T any](ctx context.Context, s Reader, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) (*T, error) {
	entry, err := s.Get(ctx, ownerID, kind, recordID)
	if err != nil || entry == nil {
		return nil, err
	}
	var record T
	if err := json.Unmarshal(entry.Payload, &record); err != nil {
		return nil, fmt.Errorf("decode cached %s %s: %w", kind, recordID, err)
	}
	return &record, nil
}
