package service

import (
	"context"
	"strings"
	"time"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/dukabook/ledger-api/internal/infrastructure/cache"
	"github.com/dukabook/ledger-api/pkg/apperror"
	"github.com/dukabook/ledger-api/pkg/numeric"
	"github.com/dukabook/ledger-api/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ProductService handles product operations.
type ProductService struct {
	products repository.ProductRepository
	mirror   Mirror
	gate     *PermissionGate
	recorder *MutationRecorder
	log      *logrus.Logger
}

// NewProductService creates a new product service
func NewProductService(products repository.ProductRepository, mirror Mirror, gate *PermissionGate, recorder *MutationRecorder, log *logrus.Logger) *ProductService {
	return &ProductService{
		products: products,
		mirror:   mirror,
		gate:     gate,
		recorder: recorder,
		log:      log,
	}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name         string
	CostPrice    float64
	SellingPrice float64
	Stock        float64
	Category     *string
}

// CreateProduct creates a product. Offline sessions and remote write
// failures leave the record in the local cache as pending; the returned
// sync status tells the caller which happened.
func (s *ProductService) CreateProduct(ctx context.Context, sess *session.Session, input *CreateProductInput) (*entity.Product, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, "", apperror.NewFieldError("name", "Name is required")
	}

	now := time.Now()
	product := &entity.Product{
		ID:           uuid.New(),
		OwnerID:      sess.UserID,
		Name:         strings.TrimSpace(input.Name),
		CostPrice:    decimal.NewFromFloat(numeric.SafePrice(input.CostPrice)),
		SellingPrice: decimal.NewFromFloat(numeric.SafePrice(input.SellingPrice)),
		Stock:        numeric.SafeQuantity(input.Stock),
		Category:     input.Category,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if sess.Offline() {
		s.recorder.Deferred(ctx, sess, enum.KindProduct, enum.AuditActionCreate, product.ID,
			"Created product "+product.Name, nil, product, product)
		return product, enum.SyncStatusPending, nil
	}

	if err := s.products.Create(ctx, product); err != nil {
		s.log.WithError(err).Warn("Remote product create failed, keeping local copy pending")
		s.recorder.Deferred(ctx, sess, enum.KindProduct, enum.AuditActionCreate, product.ID,
			"Created product "+product.Name, nil, product, product)
		return product, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	s.recorder.Committed(ctx, sess, enum.KindProduct, enum.AuditActionCreate, product.ID,
		"Created product "+product.Name, nil, product, product)
	return product, enum.SyncStatusSynced, nil
}

// GetProduct retrieves a product, falling back to the local cache when
// the remote store cannot be reached.
func (s *ProductService) GetProduct(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Product, error) {
	if sess.Offline() {
		return s.cached(ctx, sess, id)
	}

	product, err := s.products.GetByID(ctx, sess.UserID, id)
	if err != nil {
		s.log.WithError(err).Warn("Remote product read failed, serving cached copy")
		return s.cached(ctx, sess, id)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

func (s *ProductService) cached(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Product, error) {
	product, err := cache.GetAs[entity.Product](ctx, s.mirror, sess.UserID, enum.KindProduct, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts lists the owner's products.
func (s *ProductService) ListProducts(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.Product], error) {
	params.Pagination.Validate()

	if sess.Offline() {
		return s.cachedList(ctx, sess, params)
	}

	products, total, err := s.products.List(ctx, sess.UserID, params)
	if err != nil {
		s.log.WithError(err).Warn("Remote product list failed, serving cached copies")
		return s.cachedList(ctx, sess, params)
	}

	pag := pagination.New(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewResult(products, pag), nil
}

func (s *ProductService) cachedList(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.Product], error) {
	products, err := cache.ListAs[entity.Product](ctx, s.mirror, sess.UserID, enum.KindProduct)
	if err != nil {
		return nil, err
	}
	return paginateSlice(products, &params.Pagination), nil
}

// UpdateProductInput represents the update product input
type UpdateProductInput struct {
	Name         *string
	CostPrice    *float64
	SellingPrice *float64
	Stock        *float64
	Category     *string
}

// UpdateProduct applies a partial update to a product.
func (s *ProductService) UpdateProduct(ctx context.Context, sess *session.Session, id uuid.UUID, input *UpdateProductInput) (*entity.Product, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}

	product, err := s.GetProduct(ctx, sess, id)
	if err != nil {
		return nil, "", err
	}
	prev := *product

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, "", apperror.NewFieldError("name", "Name cannot be empty")
		}
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.CostPrice != nil {
		product.CostPrice = decimal.NewFromFloat(numeric.SafePrice(*input.CostPrice))
	}
	if input.SellingPrice != nil {
		product.SellingPrice = decimal.NewFromFloat(numeric.SafePrice(*input.SellingPrice))
	}
	if input.Stock != nil {
		product.Stock = numeric.SafeQuantity(*input.Stock)
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	product.UpdatedAt = time.Now()

	if sess.Offline() {
		s.recorder.Deferred(ctx, sess, enum.KindProduct, enum.AuditActionUpdate, product.ID,
			"Updated product "+product.Name, &prev, product, product)
		return product, enum.SyncStatusPending, nil
	}

	if err := s.products.Update(ctx, product); err != nil {
		s.log.WithError(err).Warn("Remote product update failed, keeping local copy pending")
		s.recorder.Deferred(ctx, sess, enum.KindProduct, enum.AuditActionUpdate, product.ID,
			"Updated product "+product.Name, &prev, product, product)
		return product, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	s.recorder.Committed(ctx, sess, enum.KindProduct, enum.AuditActionUpdate, product.ID,
		"Updated product "+product.Name, &prev, product, product)
	return product, enum.SyncStatusSynced, nil
}

// DeleteProduct deletes a product.
func (s *ProductService) DeleteProduct(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return err
	}

	product, err := s.GetProduct(ctx, sess, id)
	if err != nil {
		return err
	}

	if sess.Offline() {
		s.recorder.DeferredDelete(ctx, sess, enum.KindProduct, id, "Deleted product "+product.Name, product)
		return nil
	}

	if err := s.products.Delete(ctx, sess.UserID, id); err != nil {
		s.log.WithError(err).Warn("Remote product delete failed, tombstoning local copy")
		s.recorder.DeferredDelete(ctx, sess, enum.KindProduct, id, "Deleted product "+product.Name, product)
		return apperror.NewStoreUnavailableError()
	}

	s.recorder.CommittedDelete(ctx, sess, enum.KindProduct, id, "Deleted product "+product.Name, product)
	return nil
}
