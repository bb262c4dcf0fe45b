package handler

import (
	"github.com/dukabook/ledger-api/internal/application/service"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/request"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DebtHandler handles debt and debt payment HTTP requests
type DebtHandler struct {
	debtService *service.DebtService
}

// NewDebtHandler creates a new debt handler
func NewDebtHandler(debtService *service.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// List handles listing debts
func (h *DebtHandler) List(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	result, err := h.debtService.ListDebts(c.Request.Context(), sess, bindListParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Debts retrieved successfully", result)
}

// Create handles creating a debt
func (h *DebtHandler) Create(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		response.BadRequest(c, "Invalid customer ID")
		return
	}

	debt, status, err := h.debtService.CreateDebt(c.Request.Context(), sess, &service.CreateDebtInput{
		CustomerID:  customerID,
		Description: req.Description,
		Items:       toItemInputs(req.Items),
		Date:        req.Date,
	})
	respondWrite(c, 201, "Debt created successfully", debt, status, err)
}

func toItemInputs(items []request.DebtItemRequest) []service.DebtItemInput {
	inputs := make([]service.DebtItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, service.DebtItemInput{
			ItemName: item.ItemName,
			Quantity: item.Quantity,
			Price:    item.Price,
			Date:     item.Date,
		})
	}
	return inputs
}

// Get handles getting a single debt with its items
func (h *DebtHandler) Get(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid debt ID")
		return
	}

	debt, err := h.debtService.GetDebt(c.Request.Context(), sess, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Debt retrieved successfully", debt)
}

// Update handles editing a debt's description, date or items
func (h *DebtHandler) Update(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid debt ID")
		return
	}

	var req request.UpdateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	input := &service.UpdateDebtInput{
		Description: req.Description,
		Date:        req.Date,
	}
	if req.Items != nil {
		input.Items = toItemInputs(req.Items)
	}

	debt, status, err := h.debtService.UpdateDebt(c.Request.Context(), sess, id, input)
	respondWrite(c, 200, "Debt updated successfully", debt, status, err)
}

// Delete handles the cascade delete of a debt and its payments. Admin
// only, connectivity required; an interrupted cascade surfaces as 409.
func (h *DebtHandler) Delete(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid debt ID")
		return
	}

	if err := h.debtService.DeleteDebt(c.Request.Context(), sess, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListPayments handles listing payments against one debt
func (h *DebtHandler) ListPayments(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid debt ID")
		return
	}

	payments, err := h.debtService.ListPayments(c.Request.Context(), sess, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payments retrieved successfully", payments)
}

// RecordPayment handles applying a payment to a debt
func (h *DebtHandler) RecordPayment(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid debt ID")
		return
	}

	var req request.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	payment, status, err := h.debtService.RecordPayment(c.Request.Context(), sess, id, &service.RecordPaymentInput{
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	respondWrite(c, 201, "Payment recorded successfully", payment, status, err)
}

// RepairPayments handles the orphaned-payment cleanup job. Admin only.
func (h *DebtHandler) RepairPayments(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	report, err := h.debtService.RepairOrphanedPayments(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Orphaned payment repair completed", report)
}
