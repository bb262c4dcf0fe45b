package repository

import (
	"context"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	domainRepo "github.com/dukabook/ledger-api/internal/domain/repository"
	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *gorm.DB) domainRepo.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditRepository) List(ctx context.Context, params *domainRepo.AuditFilterParams) ([]entity.AuditLog, int64, error) {
	var logs []entity.AuditLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.AuditLog{})

	if params.ActorID != nil {
		query = query.Where("actor_id = ?", *params.ActorID)
	}
	if params.Action != "" {
		query = query.Where("action = ?", params.Action)
	}
	if params.Table != "" {
		query = query.Where("table_name = ?", params.Table)
	}
	if params.Range.From != nil {
		query = query.Where("created_at >= ?", *params.Range.From)
	}
	if params.Range.To != nil {
		query = query.Where("created_at <= ?", *params.Range.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("created_at DESC").
		Find(&logs).Error

	return logs, total, err
}
