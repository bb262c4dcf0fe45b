package repository

import (
	"context"
	"errors"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	domainRepo "github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		Delete(&entity.Product{}, "id = ?", id).Error
}

func (r *productRepository) List(ctx context.Context, ownerID uuid.UUID, params *domainRepo.ListParams) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Product{}).
		Scopes(OwnerScope(ownerID))

	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("created_at DESC").
		Find(&products).Error

	return products, total, err
}

// DecrementStock reduces stock by amount, flooring at zero:
// UPDATE products SET stock = GREATEST(stock - ?, 0) WHERE id = ?
func (r *productRepository) DecrementStock(ctx context.Context, ownerID, id uuid.UUID, amount int) error {
	return r.db.WithContext(ctx).Model(&entity.Product{}).
		Scopes(OwnerScope(ownerID)).
		Where("id = ?", id).
		Update("stock", gorm.Expr("GREATEST(stock - ?, 0)", amount)).Error
}
