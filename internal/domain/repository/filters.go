package repository

import (
	"time"

	"github.com/dukabook/ledger-api/pkg/pagination"
)

// DateRange bounds a query to records dated within [From, To]. A nil
// bound is open-ended.
type DateRange struct {
	From *time.Time `form:"from" json:"from,omitempty"`
	To   *time.Time `form:"to" json:"to,omitempty"`
}

// Empty reports whether the range imposes no constraint.
func (r *DateRange) Empty() bool {
	return r == nil || (r.From == nil && r.To == nil)
}

// ListParams is the common filter for owner-scoped list queries.
type ListParams struct {
	Pagination pagination.Params
	Range      DateRange
	Search     string
}
