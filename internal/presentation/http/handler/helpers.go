package handler

import (
	"strconv"
	"time"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
)

// GetSession extracts the authenticated session from the Gin context
func GetSession(c *gin.Context) *session.Session {
	val, exists := c.Get("session")
	if !exists {
		return nil
	}
	sess, ok := val.(*session.Session)
	if !ok {
		return nil
	}
	return sess
}

// bindListParams reads the common list query parameters
func bindListParams(c *gin.Context) *repository.ListParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))

	params := &repository.ListParams{Search: c.Query("search")}
	params.Pagination.Page = page
	params.Pagination.PerPage = perPage
	params.Range = bindDateRange(c)
	return params
}

// bindDateRange reads optional from/to bounds, accepting RFC3339 or a
// bare date.
func bindDateRange(c *gin.Context) repository.DateRange {
	var r repository.DateRange
	if from := parseDate(c.Query("from")); from != nil {
		r.From = from
	}
	if to := parseDate(c.Query("to")); to != nil {
		r.To = to
	}
	return r
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// respondWrite translates a service write result into an HTTP response.
// A pending record alongside a store error still reaches the client: the
// write is durable in the local cache and will be replayed, so the 202
// carries the record rather than hiding it behind a 503.
func respondWrite(c *gin.Context, createdCode int, message string, record interface{}, status enum.SyncStatus, err error) {
	if err != nil {
		if status == enum.SyncStatusPending && record != nil {
			response.Mutated(c, createdCode, message, record, status)
			return
		}
		response.Error(c, err)
		return
	}
	response.Mutated(c, createdCode, message, record, status)
}
