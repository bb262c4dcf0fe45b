package handler

import (
	"github.com/dukabook/ledger-api/internal/application/service"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/request"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// List handles listing customers
func (h *CustomerHandler) List(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), sess, bindListParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Customers retrieved successfully", result)
}

// Create handles creating a customer
func (h *CustomerHandler) Create(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	customer, status, err := h.customerService.CreateCustomer(c.Request.Context(), sess, &service.CreateCustomerInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	respondWrite(c, 201, "Customer created successfully", customer, status, err)
}

// Get handles getting a single customer
func (h *CustomerHandler) Get(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid customer ID")
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), sess, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer retrieved successfully", customer)
}

// Update handles updating a customer
func (h *CustomerHandler) Update(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid customer ID")
		return
	}

	var req request.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	customer, status, err := h.customerService.UpdateCustomer(c.Request.Context(), sess, id, &service.UpdateCustomerInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	respondWrite(c, 200, "Customer updated successfully", customer, status, err)
}

// Delete handles deleting a customer
func (h *CustomerHandler) Delete(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid customer ID")
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), sess, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
