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

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) domainRepo.ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *expenseRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Expense, error) {
	var expense entity.Expense
	err := r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		First(&expense, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &expense, err
}

func (r *expenseRepository) Update(ctx context.Context, expense *entity.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

func (r *expenseRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		Delete(&entity.Expense{}, "id = ?", id).Error
}

func (r *expenseRepository) List(ctx context.Context, ownerID uuid.UUID, params *domainRepo.ListParams) ([]entity.Expense, int64, error) {
	var expenses []entity.Expense
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Expense{}).
		Scopes(OwnerScope(ownerID), DateRangeScope(&params.Range))

	if params.Search != "" {
		query = query.Where("description ILIKE ? OR category ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("date DESC").
		Find(&expenses).Error

	return expenses, total, err
}

func (r *expenseRepository) Total(ctx context.Context, ownerID uuid.UUID, dateRange *domainRepo.DateRange) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&entity.Expense{}).
		Scopes(OwnerScope(ownerID), DateRangeScope(dateRange)).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}
