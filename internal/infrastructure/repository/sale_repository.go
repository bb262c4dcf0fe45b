package repository

import (
	"context"
	"errors"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	domainRepo "github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *saleRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) Update(ctx context.Context, sale *entity.Sale) error {
	return r.db.WithContext(ctx).Save(sale).Error
}

func (r *saleRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		Delete(&entity.Sale{}, "id = ?", id).Error
}

func (r *saleRepository) List(ctx context.Context, ownerID uuid.UUID, params *domainRepo.ListParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Sale{}).
		Scopes(OwnerScope(ownerID), DateRangeScope(&params.Range))

	if params.Search != "" {
		query = query.Where("product_name ILIKE ?", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("date DESC").
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepository) Totals(ctx context.Context, ownerID uuid.UUID, dateRange *domainRepo.DateRange) (decimal.Decimal, decimal.Decimal, error) {
	var row struct {
		Total  decimal.Decimal
		Profit decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&entity.Sale{}).
		Scopes(OwnerScope(ownerID), DateRangeScope(dateRange)).
		Select("COALESCE(SUM(total_amount), 0) AS total, COALESCE(SUM(profit), 0) AS profit").
		Scan(&row).Error
	return row.Total, row.Profit, err
}
