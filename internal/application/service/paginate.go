package service

import "github.com/dukabook/ledger-api/pkg/pagination"

// paginateSlice pages an in-memory slice, used when a list is served from
// the local cache instead of the remote store.
func paginateSlice[T any](items []T, params *pagination.Params) *pagination.Result[T] {
	params.Validate()

	start := params.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + params.PerPage
	if end > len(items) {
		end = len(items)
	}

	pag := pagination.New(params.Page, params.PerPage, int64(len(items)))
	return pagination.NewResult(items[start:end], pag)
}
