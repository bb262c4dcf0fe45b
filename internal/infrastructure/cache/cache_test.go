package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type cachedProduct struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Stock int       `json:"stock"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

func TestStorePutAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ownerID := uuid.New()

	record := cachedProduct{ID: uuid.New(), Name: "Sugar 1kg", Stock: 12}
	err := store.Put(ctx, ownerID, enum.KindProduct, record.ID, record, enum.SyncStatusPending)
	require.NoError(t, err)

	got, err := GetAs[cachedProduct](ctx, store, ownerID, enum.KindProduct, record.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sugar 1kg", got.Name)
	assert.Equal(t, 12, got.Stock)
}

func TestStorePutOverwritesExistingEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ownerID := uuid.New()
	record := cachedProduct{ID: uuid.New(), Name: "Rice 2kg", Stock: 5}

	require.NoError(t, store.Put(ctx, ownerID, enum.KindProduct, record.ID, record, enum.SyncStatusPending))

	record.Stock = 3
	require.NoError(t, store.Put(ctx, ownerID, enum.KindProduct, record.ID, record, enum.SyncStatusSynced))

	entries, err := store.ListKind(ctx, ownerID, enum.KindProduct)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enum.SyncStatusSynced, entries[0].SyncStatus)

	got, err := GetAs[cachedProduct](ctx, store, ownerID, enum.KindProduct, record.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}

func TestStoreGetReturnsNilForMissingAndTombstoned(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ownerID := uuid.New()

	got, err := store.Get(ctx, ownerID, enum.KindProduct, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)

	record := cachedProduct{ID: uuid.New(), Name: "Flour", Stock: 8}
	require.NoError(t, store.Put(ctx, ownerID, enum.KindProduct, record.ID, record, enum.SyncStatusSynced))
	require.NoError(t, store.MarkDeleted(ctx, ownerID, enum.KindProduct, record.ID))

	got, err = store.Get(ctx, ownerID, enum.KindProduct, record.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreMarkDeletedLeavesPendingTombstone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ownerID := uuid.New()
	record := cachedProduct{ID: uuid.New(), Name: "Salt", Stock: 20}

	require.NoError(t, store.Put(ctx, ownerID, enum.KindProduct, record.ID, record, enum.SyncStatusSynced))
	require.NoError(t, store.MarkDeleted(ctx, ownerID, enum.KindProduct, record.ID))

	pending, err := store.ListPending(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Deleted)
	assert.Equal(t, enum.SyncStatusPending, pending[0].SyncStatus)
}

func TestStoreListPendingOnlyReturnsUnsynced(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ownerID := uuid.New()

	synced := cachedProduct{ID: uuid.New(), Name: "Tea"}
	pending := cachedProduct{ID: uuid.New(), Name: "Coffee"}
	require.NoError(t, store.Put(ctx, ownerID, enum.KindProduct, synced.ID, synced, enum.SyncStatusSynced))
	require.NoError(t, store.Put(ctx, ownerID, enum.KindProduct, pending.ID, pending, enum.SyncStatusPending))

	entries, err := store.ListPending(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, pending.ID, entries[0].RecordID)

	count, err := store.CountPending(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, store.MarkSynced(ctx, ownerID, enum.KindProduct, pending.ID))
	count, err = store.CountPending(ctx, ownerID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStoreScopesEntriesByOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ownerA := uuid.New()
	ownerB := uuid.New()

	record := cachedProduct{ID: uuid.New(), Name: "Soap"}
	require.NoError(t, store.Put(ctx, ownerA, enum.KindProduct, record.ID, record, enum.SyncStatusSynced))

	entries, err := store.ListKind(ctx, ownerB, enum.KindProduct)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListAsDecodesAllEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ownerID := uuid.New()

	for _, name := range []string{"Milk", "Bread", "Eggs"} {
		record := cachedProduct{ID: uuid.New(), Name: name}
		require.NoError(t, store.Put(ctx, ownerID, enum.KindProduct, record.ID, record, enum.SyncStatusSynced))
	}

	records, err := ListAs[cachedProduct](ctx, store, ownerID, enum.KindProduct)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
