package handler

import (
	"github.com/dukabook/ledger-api/internal/application/service"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/request"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	saleService *service.SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// List handles listing sales
func (h *SaleHandler) List(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	result, err := h.saleService.ListSales(c.Request.Context(), sess, bindListParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Sales retrieved successfully", result)
}

// Create handles recording a sale
func (h *SaleHandler) Create(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	input := &service.CreateSaleInput{
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		CostPrice:   req.CostPrice,
		Date:        req.Date,
	}
	if req.ProductID != nil {
		productID, err := uuid.Parse(*req.ProductID)
		if err != nil {
			response.BadRequest(c, "Invalid product ID")
			return
		}
		input.ProductID = &productID
	}

	sale, status, err := h.saleService.CreateSale(c.Request.Context(), sess, input)
	respondWrite(c, 201, "Sale recorded successfully", sale, status, err)
}

// Get handles getting a single sale
func (h *SaleHandler) Get(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid sale ID")
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), sess, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale retrieved successfully", sale)
}

// Update handles updating a sale
func (h *SaleHandler) Update(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid sale ID")
		return
	}

	var req request.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	sale, status, err := h.saleService.UpdateSale(c.Request.Context(), sess, id, &service.UpdateSaleInput{
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		CostPrice:   req.CostPrice,
		Date:        req.Date,
	})
	respondWrite(c, 200, "Sale updated successfully", sale, status, err)
}

// Delete handles deleting a sale
func (h *SaleHandler) Delete(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid sale ID")
		return
	}

	if err := h.saleService.DeleteSale(c.Request.Context(), sess, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
