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

// SaleService handles sale operations.
type SaleService struct {
	sales    repository.SaleRepository
	products repository.ProductRepository
	mirror   Mirror
	gate     *PermissionGate
	recorder *MutationRecorder
	log      *logrus.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(sales repository.SaleRepository, products repository.ProductRepository, mirror Mirror, gate *PermissionGate, recorder *MutationRecorder, log *logrus.Logger) *SaleService {
	return &SaleService{
		sales:    sales,
		products: products,
		mirror:   mirror,
		gate:     gate,
		recorder: recorder,
		log:      log,
	}
}

// CreateSaleInput represents the create sale input. ProductID is optional:
// a manual sale records product name and prices directly and touches no
// stock.
type CreateSaleInput struct {
	ProductID   *uuid.UUID
	ProductName string
	Quantity    float64
	UnitPrice   float64
	CostPrice   float64
	Date        time.Time
}

// CreateSale records a sale. When the sale references a catalogued
// product, the product's stock is decremented by the sold quantity,
// floored at zero.
func (s *SaleService) CreateSale(ctx context.Context, sess *session.Session, input *CreateSaleInput) (*entity.Sale, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}

	quantity := numeric.SafeQuantity(input.Quantity)
	if quantity < 1 {
		return nil, "", apperror.NewFieldError("quantity", "Quantity must be at least 1")
	}

	now := time.Now()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	sale := &entity.Sale{
		ID:          uuid.New(),
		OwnerID:     sess.UserID,
		ProductID:   input.ProductID,
		ProductName: strings.TrimSpace(input.ProductName),
		Quantity:    quantity,
		UnitPrice:   decimal.NewFromFloat(numeric.SafePrice(input.UnitPrice)),
		CostPrice:   decimal.NewFromFloat(numeric.SafePrice(input.CostPrice)),
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var product *entity.Product
	if input.ProductID != nil {
		var err error
		product, err = s.lookupProduct(ctx, sess, *input.ProductID)
		if err != nil {
			return nil, "", err
		}
		if sale.ProductName == "" {
			sale.ProductName = product.Name
		}
		if input.UnitPrice == 0 {
			sale.UnitPrice = product.SellingPrice
		}
		if input.CostPrice == 0 {
			sale.CostPrice = product.CostPrice
		}
	}
	if sale.ProductName == "" {
		return nil, "", apperror.NewFieldError("product_name", "Product name is required")
	}
	sale.ComputeTotals()

	if sess.Offline() {
		s.mirrorStockDecrement(ctx, sess, product, quantity)
		s.recorder.Deferred(ctx, sess, enum.KindSale, enum.AuditActionCreate, sale.ID,
			"Recorded sale of "+sale.ProductName, nil, sale, sale)
		return sale, enum.SyncStatusPending, nil
	}

	if err := s.sales.Create(ctx, sale); err != nil {
		s.log.WithError(err).Warn("Remote sale create failed, keeping local copy pending")
		s.mirrorStockDecrement(ctx, sess, product, quantity)
		s.recorder.Deferred(ctx, sess, enum.KindSale, enum.AuditActionCreate, sale.ID,
			"Recorded sale of "+sale.ProductName, nil, sale, sale)
		return sale, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	if product != nil {
		if err := s.products.DecrementStock(ctx, sess.UserID, product.ID, quantity); err != nil {
			// The sale is committed; the stock adjustment catches up on the
			// next product write or reconciliation.
			s.log.WithError(err).WithField("product_id", product.ID).
				Error("Stock decrement failed after sale commit")
		} else if updated, err := s.products.GetByID(ctx, sess.UserID, product.ID); err == nil && updated != nil {
			s.recorder.Committed(ctx, sess, enum.KindProduct, enum.AuditActionUpdate, product.ID,
				"Stock reduced by sale of "+sale.ProductName, product, updated, updated)
		}
	}

	s.recorder.Committed(ctx, sess, enum.KindSale, enum.AuditActionCreate, sale.ID,
		"Recorded sale of "+sale.ProductName, nil, sale, sale)
	return sale, enum.SyncStatusSynced, nil
}

// lookupProduct reads the referenced product, falling back to the cache.
func (s *SaleService) lookupProduct(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Product, error) {
	if !sess.Offline() {
		product, err := s.products.GetByID(ctx, sess.UserID, id)
		if err == nil {
			if product == nil {
				return nil, apperror.NewNotFoundError("Product")
			}
			return product, nil
		}
		s.log.WithError(err).Warn("Remote product lookup failed, trying cache")
	}

	product, err := cache.GetAs[entity.Product](ctx, s.mirror, sess.UserID, enum.KindProduct, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// mirrorStockDecrement applies the stock change to the cached product so
// an offline ledger stays coherent; the pending copy replays on reconnect.
func (s *SaleService) mirrorStockDecrement(ctx context.Context, sess *session.Session, product *entity.Product, quantity int) {
	if product == nil {
		return
	}
	product.Stock -= quantity
	if product.Stock < 0 {
		product.Stock = 0
	}
	product.UpdatedAt = time.Now()
	if err := s.mirror.Put(ctx, sess.UserID, enum.KindProduct, product.ID, product, enum.SyncStatusPending); err != nil {
		s.log.WithError(err).WithField("product_id", product.ID).Error("Local cache write failed")
	}
}

// GetSale retrieves a sale.
func (s *SaleService) GetSale(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Sale, error) {
	if sess.Offline() {
		return s.cached(ctx, sess, id)
	}

	sale, err := s.sales.GetByID(ctx, sess.UserID, id)
	if err != nil {
		s.log.WithError(err).Warn("Remote sale read failed, serving cached copy")
		return s.cached(ctx, sess, id)
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}

func (s *SaleService) cached(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Sale, error) {
	sale, err := cache.GetAs[entity.Sale](ctx, s.mirror, sess.UserID, enum.KindSale, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}

// ListSales lists the owner's sales, optionally bounded by date range.
func (s *SaleService) ListSales(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.Sale], error) {
	params.Pagination.Validate()

	if sess.Offline() {
		return s.cachedList(ctx, sess, params)
	}

	sales, total, err := s.sales.List(ctx, sess.UserID, params)
	if err != nil {
		s.log.WithError(err).Warn("Remote sale list failed, serving cached copies")
		return s.cachedList(ctx, sess, params)
	}

	pag := pagination.New(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewResult(sales, pag), nil
}

func (s *SaleService) cachedList(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.Sale], error) {
	sales, err := cache.ListAs[entity.Sale](ctx, s.mirror, sess.UserID, enum.KindSale)
	if err != nil {
		return nil, err
	}
	return paginateSlice(sales, &params.Pagination), nil
}

// UpdateSaleInput represents the update sale input
type UpdateSaleInput struct {
	ProductName *string
	Quantity    *float64
	UnitPrice   *float64
	CostPrice   *float64
	Date        *time.Time
}

// UpdateSale applies a partial update; totals are recomputed from the
// updated inputs. Stock is not re-adjusted on edits.
func (s *SaleService) UpdateSale(ctx context.Context, sess *session.Session, id uuid.UUID, input *UpdateSaleInput) (*entity.Sale, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}

	sale, err := s.GetSale(ctx, sess, id)
	if err != nil {
		return nil, "", err
	}
	prev := *sale

	if input.ProductName != nil {
		sale.ProductName = strings.TrimSpace(*input.ProductName)
	}
	if input.Quantity != nil {
		quantity := numeric.SafeQuantity(*input.Quantity)
		if quantity < 1 {
			return nil, "", apperror.NewFieldError("quantity", "Quantity must be at least 1")
		}
		sale.Quantity = quantity
	}
	if input.UnitPrice != nil {
		sale.UnitPrice = decimal.NewFromFloat(numeric.SafePrice(*input.UnitPrice))
	}
	if input.CostPrice != nil {
		sale.CostPrice = decimal.NewFromFloat(numeric.SafePrice(*input.CostPrice))
	}
	if input.Date != nil {
		sale.Date = *input.Date
	}
	sale.ComputeTotals()
	sale.UpdatedAt = time.Now()

	if sess.Offline() {
		s.recorder.Deferred(ctx, sess, enum.KindSale, enum.AuditActionUpdate, sale.ID,
			"Updated sale of "+sale.ProductName, &prev, sale, sale)
		return sale, enum.SyncStatusPending, nil
	}

	if err := s.sales.Update(ctx, sale); err != nil {
		s.log.WithError(err).Warn("Remote sale update failed, keeping local copy pending")
		s.recorder.Deferred(ctx, sess, enum.KindSale, enum.AuditActionUpdate, sale.ID,
			"Updated sale of "+sale.ProductName, &prev, sale, sale)
		return sale, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	s.recorder.Committed(ctx, sess, enum.KindSale, enum.AuditActionUpdate, sale.ID,
		"Updated sale of "+sale.ProductName, &prev, sale, sale)
	return sale, enum.SyncStatusSynced, nil
}

// DeleteSale deletes a sale. Stock is not restored.
func (s *SaleService) DeleteSale(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return err
	}

	sale, err := s.GetSale(ctx, sess, id)
	if err != nil {
		return err
	}

	if sess.Offline() {
		s.recorder.DeferredDelete(ctx, sess, enum.KindSale, id, "Deleted sale of "+sale.ProductName, sale)
		return nil
	}

	if err := s.sales.Delete(ctx, sess.UserID, id); err != nil {
		s.log.WithError(err).Warn("Remote sale delete failed, tombstoning local copy")
		s.recorder.DeferredDelete(ctx, sess, enum.KindSale, id, "Deleted sale of "+sale.ProductName, sale)
		return apperror.NewStoreUnavailableError()
	}

	s.recorder.CommittedDelete(ctx, sess, enum.KindSale, id, "Deleted sale of "+sale.ProductName, sale)
	return nil
}
