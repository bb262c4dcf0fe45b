package request

import "time"

// CreateProductRequest represents a create product request
type CreateProductRequest struct {
	Name         string  `json:"name" binding:"required"`
	CostPrice    float64 `json:"cost_price"`
	SellingPrice float64 `json:"selling_price"`
	Stock        float64 `json:"stock"`
	Category     *string `json:"category"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name         *string  `json:"name"`
	CostPrice    *float64 `json:"cost_price"`
	SellingPrice *float64 `json:"selling_price"`
	Stock        *float64 `json:"stock"`
	Category     *string  `json:"category"`
}

// CreateSaleRequest represents a create sale request. A sale either
// references a catalogued product by ID or carries a free-form name.
type CreateSaleRequest struct {
	ProductID   *string   `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    float64   `json:"quantity" binding:"required"`
	UnitPrice   float64   `json:"unit_price"`
	CostPrice   float64   `json:"cost_price"`
	Date        time.Time `json:"date"`
}

// UpdateSaleRequest represents a partial sale update
type UpdateSaleRequest struct {
	ProductName *string    `json:"product_name"`
	Quantity    *float64   `json:"quantity"`
	UnitPrice   *float64   `json:"unit_price"`
	CostPrice   *float64   `json:"cost_price"`
	Date        *time.Time `json:"date"`
}

// CreateExpenseRequest represents a create expense request
type CreateExpenseRequest struct {
	Description string    `json:"description" binding:"required"`
	Amount      float64   `json:"amount" binding:"required"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

// UpdateExpenseRequest represents a partial expense update
type UpdateExpenseRequest struct {
	Description *string    `json:"description"`
	Amount      *float64   `json:"amount"`
	Category    *string    `json:"category"`
	Date        *time.Time `json:"date"`
}

// CreateCustomerRequest represents a create customer request
type CreateCustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

// UpdateCustomerRequest represents a partial customer update
type UpdateCustomerRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

// DebtItemRequest is one line item of a debt
type DebtItemRequest struct {
	ItemName string    `json:"item_name" binding:"required"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
	Date     time.Time `json:"date"`
}

// CreateDebtRequest represents a create debt request
type CreateDebtRequest struct {
	CustomerID  string            `json:"customer_id" binding:"required,uuid"`
	Description string            `json:"description"`
	Items       []DebtItemRequest `json:"items" binding:"required,min=1"`
	Date        time.Time         `json:"date"`
}

// UpdateDebtRequest represents a partial debt update. Supplying items
// replaces the full item list and recomputes the total.
type UpdateDebtRequest struct {
	Description *string           `json:"description"`
	Items       []DebtItemRequest `json:"items"`
	Date        *time.Time        `json:"date"`
}

// RecordPaymentRequest applies a payment against a debt
type RecordPaymentRequest struct {
	Amount      float64   `json:"amount" binding:"required"`
	Date        time.Time `json:"date"`
	Description *string   `json:"description"`
}
