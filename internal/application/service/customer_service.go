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
	"github.com/dukabook/ledger-api/pkg/pagination"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CustomerService handles customer operations.
type CustomerService struct {
	customers repository.CustomerRepository
	mirror    Mirror
	gate      *PermissionGate
	recorder  *MutationRecorder
	log       *logrus.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(customers repository.CustomerRepository, mirror Mirror, gate *PermissionGate, recorder *MutationRecorder, log *logrus.Logger) *CustomerService {
	return &CustomerService{
		customers: customers,
		mirror:    mirror,
		gate:      gate,
		recorder:  recorder,
		log:       log,
	}
}

// CreateCustomerInput represents the create customer input
type CreateCustomerInput struct {
	Name    string
	Phone   *string
	Email   *string
	Address *string
}

// CreateCustomer creates a customer.
func (s *CustomerService) CreateCustomer(ctx context.Context, sess *session.Session, input *CreateCustomerInput) (*entity.Customer, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, "", apperror.NewFieldError("name", "Name is required")
	}

	now := time.Now()
	customer := &entity.Customer{
		ID:        uuid.New(),
		OwnerID:   sess.UserID,
		Name:      strings.TrimSpace(input.Name),
		Phone:     input.Phone,
		Email:     input.Email,
		Address:   input.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if sess.Offline() {
		s.recorder.Deferred(ctx, sess, enum.KindCustomer, enum.AuditActionCreate, customer.ID,
			"Created customer "+customer.Name, nil, customer, customer)
		return customer, enum.SyncStatusPending, nil
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		s.log.WithError(err).Warn("Remote customer create failed, keeping local copy pending")
		s.recorder.Deferred(ctx, sess, enum.KindCustomer, enum.AuditActionCreate, customer.ID,
			"Created customer "+customer.Name, nil, customer, customer)
		return customer, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	s.recorder.Committed(ctx, sess, enum.KindCustomer, enum.AuditActionCreate, customer.ID,
		"Created customer "+customer.Name, nil, customer, customer)
	return customer, enum.SyncStatusSynced, nil
}

// GetCustomer retrieves a customer.
func (s *CustomerService) GetCustomer(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Customer, error) {
	if sess.Offline() {
		return s.cached(ctx, sess, id)
	}

	customer, err := s.customers.GetByID(ctx, sess.UserID, id)
	if err != nil {
		s.log.WithError(err).Warn("Remote customer read failed, serving cached copy")
		return s.cached(ctx, sess, id)
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

func (s *CustomerService) cached(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Customer, error) {
	customer, err := cache.GetAs[entity.Customer](ctx, s.mirror, sess.UserID, enum.KindCustomer, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers lists the owner's customers.
func (s *CustomerService) ListCustomers(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.Customer], error) {
	params.Pagination.Validate()

	if sess.Offline() {
		return s.cachedList(ctx, sess, params)
	}

	customers, total, err := s.customers.List(ctx, sess.UserID, params)
	if err != nil {
		s.log.WithError(err).Warn("Remote customer list failed, serving cached copies")
		return s.cachedList(ctx, sess, params)
	}

	pag := pagination.New(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewResult(customers, pag), nil
}

func (s *CustomerService) cachedList(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.Customer], error) {
	customers, err := cache.ListAs[entity.Customer](ctx, s.mirror, sess.UserID, enum.KindCustomer)
	if err != nil {
		return nil, err
	}
	return paginateSlice(customers, &params.Pagination), nil
}

// UpdateCustomerInput represents the update customer input
type UpdateCustomerInput struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
}

// UpdateCustomer applies a partial update to a customer.
func (s *CustomerService) UpdateCustomer(ctx context.Context, sess *session.Session, id uuid.UUID, input *UpdateCustomerInput) (*entity.Customer, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}

	customer, err := s.GetCustomer(ctx, sess, id)
	if err != nil {
		return nil, "", err
	}
	prev := *customer

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, "", apperror.NewFieldError("name", "Name cannot be empty")
		}
		customer.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.Email != nil {
		customer.Email = input.Email
	}
	if input.Address != nil {
		customer.Address = input.Address
	}
	customer.UpdatedAt = time.Now()

	if sess.Offline() {
		s.recorder.Deferred(ctx, sess, enum.KindCustomer, enum.AuditActionUpdate, customer.ID,
			"Updated customer "+customer.Name, &prev, customer, customer)
		return customer, enum.SyncStatusPending, nil
	}

	if err := s.customers.Update(ctx, customer); err != nil {
		s.log.WithError(err).Warn("Remote customer update failed, keeping local copy pending")
		s.recorder.Deferred(ctx, sess, enum.KindCustomer, enum.AuditActionUpdate, customer.ID,
			"Updated customer "+customer.Name, &prev, customer, customer)
		return customer, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	s.recorder.Committed(ctx, sess, enum.KindCustomer, enum.AuditActionUpdate, customer.ID,
		"Updated customer "+customer.Name, &prev, customer, customer)
	return customer, enum.SyncStatusSynced, nil
}

// DeleteCustomer deletes a customer. Debts that reference the customer
// keep their copied name and phone.
func (s *CustomerService) DeleteCustomer(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return err
	}

	customer, err := s.GetCustomer(ctx, sess, id)
	if err != nil {
		return err
	}

	if sess.Offline() {
		s.recorder.DeferredDelete(ctx, sess, enum.KindCustomer, id, "Deleted customer "+customer.Name, customer)
		return nil
	}

	if err := s.customers.Delete(ctx, sess.UserID, id); err != nil {
		s.log.WithError(err).Warn("Remote customer delete failed, tombstoning local copy")
		s.recorder.DeferredDelete(ctx, sess, enum.KindCustomer, id, "Deleted customer "+customer.Name, customer)
		return apperror.NewStoreUnavailableError()
	}

	s.recorder.CommittedDelete(ctx, sess, enum.KindCustomer, id, "Deleted customer "+customer.Name, customer)
	return nil
}
