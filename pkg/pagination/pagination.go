package pagination

import "math"

// Pagination represents pagination metadata returned to the client
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// Params represents input parameters for pagination
type Params struct {
	Page    int `form:"page" json:"page"`
	PerPage int `form:"per_page" json:"per_page"`
}

// Default returns default pagination values
func Default() *Params {
	return &Params{
		Page:    1,
		PerPage: 25,
	}
}

// Validate ensures pagination parameters are within valid ranges
func (p *Params) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 25
	}
	if p.PerPage > 200 {
		p.PerPage = 200
	}
}

// Offset calculates the offset for SQL queries
func (p *Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// New creates pagination metadata from page parameters and a total count
func New(page, perPage int, total int64) *Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))

	return &Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// Result represents a paginated result with items and pagination info
type Result[T any] struct {
	Items      []T         `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// NewResult creates a new paginated result
func NewResult[T any](items []T, pagination *Pagination) *Result[T] {
	return &Result[T]{
		Items:      items,
		Pagination: pagination,
	}
}
