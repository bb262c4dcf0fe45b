package handler

import (
	"github.com/dukabook/ledger-api/internal/application/service"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the reconciliation loop over HTTP: clients call
// refresh on login and reconnect, and poll status/pending to drive their
// sync indicators.
type SyncHandler struct {
	reconciler *service.Reconciler
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(reconciler *service.Reconciler) *SyncHandler {
	return &SyncHandler{reconciler: reconciler}
}

// Refresh replays the caller's pending local writes to the remote store
// and advances the data version.
func (h *SyncHandler) Refresh(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	report, err := h.reconciler.RefreshAll(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reconciliation completed", report)
}

// Status reports the caller's current data version and last sync time.
func (h *SyncHandler) Status(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	response.OK(c, "Sync status retrieved successfully", gin.H{
		"data_version":   h.reconciler.Current(sess.UserID),
		"last_sync_time": h.reconciler.LastSync(sess.UserID),
	})
}

// Pending lists the caller's local writes that have not reached the
// remote store yet.
func (h *SyncHandler) Pending(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	entries, err := h.reconciler.PendingWrites(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Pending writes retrieved successfully", gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}
