package enum

// SyncStatus tags a locally cached record with its remote acknowledgement
// state. Local writes start as pending and flip to synced once the remote
// store acknowledges them; a record stays pending indefinitely if the
// remote write never completes.
type SyncStatus string

const (
	SyncStatusPending  SyncStatus = "pending"
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusConflict SyncStatus = "conflict"
)

func (s SyncStatus) String() string {
	return string(s)
}
