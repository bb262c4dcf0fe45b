package repository

import (
	domainRepo "github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnerScope returns a GORM scope that filters by the owning identity.
// Applied to every query on owner-scoped collections. A nil owner is a
// fail-safe: it returns no rows rather than all rows, so a missing
// session can never leak another owner's records.
func OwnerScope(ownerID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if ownerID == uuid.Nil {
			return db.Where("1 = 0")
		}
		return db.Where("owner_id = ?", ownerID)
	}
}

// DateRangeScope bounds a query to records dated within the range.
func DateRangeScope(dateRange *domainRepo.DateRange) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if dateRange.Empty() {
			return db
		}
		if dateRange.From != nil {
			db = db.Where("date >= ?", *dateRange.From)
		}
		if dateRange.To != nil {
			db = db.Where("date <= ?", *dateRange.To)
		}
		return db
	}
}
