package repository

import (
	"context"
	"errors"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	domainRepo "github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type debtRepository struct {
	db *gorm.DB
}

// NewDebtRepository creates a new debt repository
func NewDebtRepository(db *gorm.DB) domainRepo.DebtRepository {
	return &debtRepository{db: db}
}

func (r *debtRepository) Create(ctx context.Context, debt *entity.Debt) error {
	return r.db.WithContext(ctx).Create(debt).Error
}

func (r *debtRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Debt, error) {
	var debt entity.Debt
	err := r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		Preload("Items").
		First(&debt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &debt, err
}

func (r *debtRepository) Update(ctx context.Context, debt *entity.Debt) error {
	return r.db.WithContext(ctx).Omit("Items").Save(debt).Error
}

func (r *debtRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		Delete(&entity.Debt{}, "id = ?", id).Error
}

func (r *debtRepository) List(ctx context.Context, ownerID uuid.UUID, params *domainRepo.ListParams) ([]entity.Debt, int64, error) {
	var debts []entity.Debt
	var total int64

	// Debts mid-cascade are invisible to normal reads.
	query := r.db.WithContext(ctx).Model(&entity.Debt{}).
		Scopes(OwnerScope(ownerID), DateRangeScope(&params.Range)).
		Where("delete_status = ?", enum.DeleteStatusActive)

	if params.Search != "" {
		query = query.Where("customer_name ILIKE ? OR description ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Items").
		Order("date DESC").
		Find(&debts).Error

	return debts, total, err
}

func (r *debtRepository) MarkPendingDelete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Debt{}).
		Scopes(OwnerScope(ownerID)).
		Where("id = ?", id).
		Update("delete_status", enum.DeleteStatusPendingDelete).Error
}

func (r *debtRepository) ReplaceItems(ctx context.Context, debt *entity.Debt, items []entity.DebtItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.DebtItem{}, "debt_id = ?", debt.ID).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].DebtID = debt.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		debt.Items = items
		return tx.Omit("Items").Save(debt).Error
	})
}

// RecordPayment treats the payment insert and the parent debt's
// paidAmount/status update as one transaction.
func (r *debtRepository) RecordPayment(ctx context.Context, payment *entity.DebtPayment, debt *entity.Debt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Debt{}).
			Where("id = ? AND owner_id = ?", debt.ID, debt.OwnerID).
			Updates(map[string]interface{}{
				"paid_amount": debt.PaidAmount,
				"status":      debt.Status,
			}).Error
	})
}

func (r *debtRepository) Outstanding(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&entity.Debt{}).
		Scopes(OwnerScope(ownerID)).
		Where("delete_status = ? AND status <> ?", enum.DeleteStatusActive, enum.DebtStatusPaid).
		Select("COALESCE(SUM(total_amount - paid_amount), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

type debtPaymentRepository struct {
	db *gorm.DB
}

// NewDebtPaymentRepository creates a new debt payment repository
func NewDebtPaymentRepository(db *gorm.DB) domainRepo.DebtPaymentRepository {
	return &debtPaymentRepository{db: db}
}

func (r *debtPaymentRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.DebtPayment, error) {
	var payment entity.DebtPayment
	err := r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *debtPaymentRepository) ListByDebt(ctx context.Context, ownerID, debtID uuid.UUID) ([]entity.DebtPayment, error) {
	var payments []entity.DebtPayment
	err := r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		Where("debt_id = ?", debtID).
		Order("date ASC").
		Find(&payments).Error
	return payments, err
}

func (r *debtPaymentRepository) DeleteByDebt(ctx context.Context, ownerID, debtID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		Where("debt_id = ?", debtID).
		Delete(&entity.DebtPayment{})
	return result.RowsAffected, result.Error
}

// ListOrphans finds payments whose parent debt is gone or stuck in
// pending_delete, the leftovers of an interrupted cascade.
func (r *debtPaymentRepository) ListOrphans(ctx context.Context, ownerID uuid.UUID) ([]entity.DebtPayment, error) {
	var payments []entity.DebtPayment
	err := r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		Where("debt_id NOT IN (?)",
			r.db.Model(&entity.Debt{}).
				Select("id").
				Where("owner_id = ? AND delete_status = ?", ownerID, enum.DeleteStatusActive),
		).
		Find(&payments).Error
	return payments, err
}
