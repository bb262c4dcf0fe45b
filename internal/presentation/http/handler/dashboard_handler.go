package handler

import (
	"github.com/dukabook/ledger-api/internal/application/service"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
)

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetSummary handles the headline-figures query, optionally bounded by
// from/to query parameters.
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	dateRange := bindDateRange(c)
	summary, err := h.dashboardService.GetSummary(c.Request.Context(), sess, &dateRange)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Summary retrieved successfully", summary)
}
