package handler

import (
	"github.com/dukabook/ledger-api/internal/application/service"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditHandler handles audit trail HTTP requests
type AuditHandler struct {
	auditLogger *service.AuditLogger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditLogger *service.AuditLogger) *AuditHandler {
	return &AuditHandler{auditLogger: auditLogger}
}

// List handles querying the audit trail. Admin only; non-admins get an
// empty page rather than an error.
func (h *AuditHandler) List(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	params := &repository.AuditFilterParams{
		ListParams: *bindListParams(c),
		Action:     enum.AuditAction(c.Query("action")),
		Table:      enum.RecordKind(c.Query("table")),
	}
	if actorIDStr := c.Query("actor_id"); actorIDStr != "" {
		actorID, err := uuid.Parse(actorIDStr)
		if err != nil {
			response.BadRequest(c, "Invalid actor ID")
			return
		}
		params.ActorID = &actorID
	}

	result, err := h.auditLogger.List(c.Request.Context(), sess, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Audit entries retrieved successfully", result)
}
