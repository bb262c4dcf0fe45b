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

// DebtService handles debts and their payments. Debt status and balance
// are always derived through the entity's Recalculate/Balance methods;
// nothing in this service sets them directly.
type DebtService struct {
	debts     repository.DebtRepository
	payments  repository.DebtPaymentRepository
	customers repository.CustomerRepository
	mirror    Mirror
	gate      *PermissionGate
	recorder  *MutationRecorder
	log       *logrus.Logger
}

// NewDebtService creates a new debt service
func NewDebtService(
	debts repository.DebtRepository,
	payments repository.DebtPaymentRepository,
	customers repository.CustomerRepository,
	mirror Mirror,
	gate *PermissionGate,
	recorder *MutationRecorder,
	log *logrus.Logger,
) *DebtService {
	return &DebtService{
		debts:     debts,
		payments:  payments,
		customers: customers,
		mirror:    mirror,
		gate:      gate,
		recorder:  recorder,
		log:       log,
	}
}

// DebtItemInput is one line item of a debt.
type DebtItemInput struct {
	ItemName string
	Quantity float64
	Price    float64
	Date     time.Time
}

// CreateDebtInput represents the create debt input. Customer name and
// phone are copied onto the debt so it stays readable if the customer
// record is later removed.
type CreateDebtInput struct {
	CustomerID  uuid.UUID
	Description string
	Items       []DebtItemInput
	Date        time.Time
}

// CreateDebt creates a debt whose total is the sum of its line items.
func (s *DebtService) CreateDebt(ctx context.Context, sess *session.Session, input *CreateDebtInput) (*entity.Debt, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}
	if len(input.Items) == 0 {
		return nil, "", apperror.NewFieldError("items", "At least one item is required")
	}

	customer, err := s.lookupCustomer(ctx, sess, input.CustomerID)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	debt := &entity.Debt{
		ID:            uuid.New(),
		OwnerID:       sess.UserID,
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		Description:   strings.TrimSpace(input.Description),
		PaidAmount:    decimal.Zero,
		DeleteStatus:  enum.DeleteStatusActive,
		Date:          date,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	items, err := buildDebtItems(debt.ID, input.Items, date)
	if err != nil {
		return nil, "", err
	}
	debt.Items = items
	debt.TotalAmount = debt.SumItems()
	debt.Recalculate()

	if sess.Offline() {
		s.recorder.Deferred(ctx, sess, enum.KindDebt, enum.AuditActionCreate, debt.ID,
			"Created debt for "+debt.CustomerName, nil, debt, debt)
		return debt, enum.SyncStatusPending, nil
	}

	if err := s.debts.Create(ctx, debt); err != nil {
		s.log.WithError(err).Warn("Remote debt create failed, keeping local copy pending")
		s.recorder.Deferred(ctx, sess, enum.KindDebt, enum.AuditActionCreate, debt.ID,
			"Created debt for "+debt.CustomerName, nil, debt, debt)
		return debt, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	s.recorder.Committed(ctx, sess, enum.KindDebt, enum.AuditActionCreate, debt.ID,
		"Created debt for "+debt.CustomerName, nil, debt, debt)
	return debt, enum.SyncStatusSynced, nil
}

func buildDebtItems(debtID uuid.UUID, inputs []DebtItemInput, fallbackDate time.Time) ([]entity.DebtItem, error) {
	items := make([]entity.DebtItem, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.ItemName)
		if name == "" {
			return nil, apperror.NewFieldError("items", "Item name is required")
		}
		quantity := numeric.SafeQuantity(in.Quantity)
		if quantity < 1 {
			quantity = 1
		}
		price := decimal.NewFromFloat(numeric.SafePrice(in.Price))
		date := in.Date
		if date.IsZero() {
			date = fallbackDate
		}
		items = append(items, entity.DebtItem{
			ID:       uuid.New(),
			DebtID:   debtID,
			ItemName: name,
			Quantity: quantity,
			Price:    price,
			Total:    price.Mul(decimal.NewFromInt(int64(quantity))),
			Date:     date,
		})
	}
	return items, nil
}

func (s *DebtService) lookupCustomer(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Customer, error) {
	if !sess.Offline() {
		customer, err := s.customers.GetByID(ctx, sess.UserID, id)
		if err == nil {
			if customer == nil {
				return nil, apperror.NewNotFoundError("Customer")
			}
			return customer, nil
		}
		s.log.WithError(err).Warn("Remote customer lookup failed, trying cache")
	}

	customer, err := cache.GetAs[entity.Customer](ctx, s.mirror, sess.UserID, enum.KindCustomer, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// GetDebt retrieves a debt with its items.
func (s *DebtService) GetDebt(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Debt, error) {
	if sess.Offline() {
		return s.cachedDebt(ctx, sess, id)
	}

	debt, err := s.debts.GetByID(ctx, sess.UserID, id)
	if err != nil {
		s.log.WithError(err).Warn("Remote debt read failed, serving cached copy")
		return s.cachedDebt(ctx, sess, id)
	}
	if debt == nil {
		return nil, apperror.NewNotFoundError("Debt")
	}
	return debt, nil
}

func (s *DebtService) cachedDebt(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Debt, error) {
	debt, err := cache.GetAs[entity.Debt](ctx, s.mirror, sess.UserID, enum.KindDebt, id)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return nil, apperror.NewNotFoundError("Debt")
	}
	return debt, nil
}

// ListDebts lists the owner's debts; debts mid-cascade are excluded.
func (s *DebtService) ListDebts(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.Debt], error) {
	params.Pagination.Validate()

	if sess.Offline() {
		return s.cachedList(ctx, sess, params)
	}

	debts, total, err := s.debts.List(ctx, sess.UserID, params)
	if err != nil {
		s.log.WithError(err).Warn("Remote debt list failed, serving cached copies")
		return s.cachedList(ctx, sess, params)
	}

	pag := pagination.New(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewResult(debts, pag), nil
}

func (s *DebtService) cachedList(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.Debt], error) {
	debts, err := cache.ListAs[entity.Debt](ctx, s.mirror, sess.UserID, enum.KindDebt)
	if err != nil {
		return nil, err
	}
	return paginateSlice(debts, &params.Pagination), nil
}

// UpdateDebtInput represents the update debt input. Replacing items
// recomputes the total and re-derives the status against what has
// already been paid.
type UpdateDebtInput struct {
	Description *string
	Items       []DebtItemInput
	Date        *time.Time
}

// UpdateDebt edits a debt's description, date or line items.
func (s *DebtService) UpdateDebt(ctx context.Context, sess *session.Session, id uuid.UUID, input *UpdateDebtInput) (*entity.Debt, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}

	debt, err := s.GetDebt(ctx, sess, id)
	if err != nil {
		return nil, "", err
	}
	prev := *debt

	if input.Description != nil {
		debt.Description = strings.TrimSpace(*input.Description)
	}
	if input.Date != nil {
		debt.Date = *input.Date
	}

	var newItems []entity.DebtItem
	if input.Items != nil {
		if len(input.Items) == 0 {
			return nil, "", apperror.NewFieldError("items", "At least one item is required")
		}
		newItems, err = buildDebtItems(debt.ID, input.Items, debt.Date)
		if err != nil {
			return nil, "", err
		}
		debt.Items = newItems
		debt.TotalAmount = debt.SumItems()
		debt.Recalculate()
	}
	debt.UpdatedAt = time.Now()

	if sess.Offline() {
		s.recorder.Deferred(ctx, sess, enum.KindDebt, enum.AuditActionUpdate, debt.ID,
			"Updated debt for "+debt.CustomerName, &prev, debt, debt)
		return debt, enum.SyncStatusPending, nil
	}

	var writeErr error
	if newItems != nil {
		writeErr = s.debts.ReplaceItems(ctx, debt, newItems)
	} else {
		writeErr = s.debts.Update(ctx, debt)
	}
	if writeErr != nil {
		s.log.WithError(writeErr).Warn("Remote debt update failed, keeping local copy pending")
		s.recorder.Deferred(ctx, sess, enum.KindDebt, enum.AuditActionUpdate, debt.ID,
			"Updated debt for "+debt.CustomerName, &prev, debt, debt)
		return debt, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	s.recorder.Committed(ctx, sess, enum.KindDebt, enum.AuditActionUpdate, debt.ID,
		"Updated debt for "+debt.CustomerName, &prev, debt, debt)
	return debt, enum.SyncStatusSynced, nil
}

// RecordPaymentInput represents a payment against a debt.
type RecordPaymentInput struct {
	Amount      float64
	Date        time.Time
	Description *string
}

// RecordPayment applies a payment to a debt. The amount must be positive
// and no greater than the debt's current balance; validation happens
// before any store contact. The payment insert and the debt's updated
// paidAmount/status are one transaction on the remote store.
func (s *DebtService) RecordPayment(ctx context.Context, sess *session.Session, debtID uuid.UUID, input *RecordPaymentInput) (*entity.DebtPayment, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}

	debt, err := s.GetDebt(ctx, sess, debtID)
	if err != nil {
		return nil, "", err
	}

	amount := decimal.NewFromFloat(numeric.SafeAmount(input.Amount))
	if !amount.IsPositive() {
		return nil, "", apperror.NewFieldError("amount", "Payment amount must be positive")
	}
	if amount.GreaterThan(debt.Balance()) {
		return nil, "", apperror.NewFieldError("amount", "Payment exceeds the outstanding balance")
	}

	now := time.Now()
	date := input.Date
	if date.IsZero() {
		date = now
	}
	payment := &entity.DebtPayment{
		ID:          uuid.New(),
		OwnerID:     sess.UserID,
		DebtID:      debt.ID,
		Amount:      amount,
		Date:        date,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	prev := *debt
	debt.PaidAmount = debt.PaidAmount.Add(amount)
	debt.Recalculate()
	debt.UpdatedAt = now

	if sess.Offline() {
		s.finishPayment(ctx, sess, payment, debt, &prev, enum.SyncStatusPending)
		return payment, enum.SyncStatusPending, nil
	}

	if err := s.debts.RecordPayment(ctx, payment, debt); err != nil {
		s.log.WithError(err).Warn("Remote payment write failed, keeping local copies pending")
		s.finishPayment(ctx, sess, payment, debt, &prev, enum.SyncStatusPending)
		return payment, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	s.finishPayment(ctx, sess, payment, debt, &prev, enum.SyncStatusSynced)
	return payment, enum.SyncStatusSynced, nil
}

// finishPayment mirrors both records and runs the audit/notify tail once,
// with the payment as the audited record and the debt's before/after
// state as the snapshots.
func (s *DebtService) finishPayment(ctx context.Context, sess *session.Session, payment *entity.DebtPayment, debt, prev *entity.Debt, status enum.SyncStatus) {
	if err := s.mirror.Put(ctx, sess.UserID, enum.KindDebt, debt.ID, debt, status); err != nil {
		s.log.WithError(err).WithField("debt_id", debt.ID).Error("Local cache write failed")
	}
	description := "Payment of " + payment.Amount.StringFixed(2) + " against debt for " + debt.CustomerName
	if status == enum.SyncStatusSynced {
		s.recorder.Committed(ctx, sess, enum.KindDebtPayment, enum.AuditActionPayment, payment.ID,
			description, prev, debt, payment)
	} else {
		s.recorder.Deferred(ctx, sess, enum.KindDebtPayment, enum.AuditActionPayment, payment.ID,
			description, prev, debt, payment)
	}
}

// ListPayments lists the payments recorded against one debt.
func (s *DebtService) ListPayments(ctx context.Context, sess *session.Session, debtID uuid.UUID) ([]entity.DebtPayment, error) {
	if _, err := s.GetDebt(ctx, sess, debtID); err != nil {
		return nil, err
	}
	if sess.Offline() {
		return s.cachedPayments(ctx, sess, debtID)
	}

	payments, err := s.payments.ListByDebt(ctx, sess.UserID, debtID)
	if err != nil {
		s.log.WithError(err).Warn("Remote payment list failed, serving cached copies")
		return s.cachedPayments(ctx, sess, debtID)
	}
	return payments, nil
}

func (s *DebtService) cachedPayments(ctx context.Context, sess *session.Session, debtID uuid.UUID) ([]entity.DebtPayment, error) {
	all, err := cache.ListAs[entity.DebtPayment](ctx, s.mirror, sess.UserID, enum.KindDebtPayment)
	if err != nil {
		return nil, err
	}
	payments := make([]entity.DebtPayment, 0, len(all))
	for _, p := range all {
		if p.DebtID == debtID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

// DeleteDebt removes a debt and all of its payments. Admin only, and only
// with connectivity: the cascade is two sequential remote deletes with no
// shared transaction, so the debt is first marked pending_delete to make
// an interrupted cascade discoverable, payments go next, the parent last.
// A failure between the steps surfaces as a PartialCascadeError; the
// repair job finishes the cleanup later.
func (s *DebtService) DeleteDebt(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	if err := s.gate.Require(ctx, sess, CapDeleteDebt); err != nil {
		return err
	}
	if sess.Offline() {
		return apperror.NewFieldError("mode", "Debt deletion requires connectivity")
	}

	debt, err := s.GetDebt(ctx, sess, id)
	if err != nil {
		return err
	}

	if err := s.debts.MarkPendingDelete(ctx, sess.UserID, id); err != nil {
		return apperror.NewStoreUnavailableError()
	}

	removed, err := s.payments.DeleteByDebt(ctx, sess.UserID, id)
	if err != nil {
		return &apperror.PartialCascadeError{
			DebtID:            id,
			ParentDeleted:     false,
			RemainingPayments: -1,
			Cause:             err,
		}
	}

	if err := s.debts.Delete(ctx, sess.UserID, id); err != nil {
		return &apperror.PartialCascadeError{
			DebtID:        id,
			ParentDeleted: false,
			Cause:         err,
		}
	}

	s.log.WithFields(logrus.Fields{
		"debt_id":          id,
		"payments_removed": removed,
	}).Info("Debt cascade delete completed")

	s.purgeCachedPayments(ctx, sess, id)
	s.recorder.CommittedDelete(ctx, sess, enum.KindDebt, id, "Deleted debt for "+debt.CustomerName, debt)
	return nil
}

// purgeCachedPayments drops the mirror entries of a deleted debt's
// payments so the cascade leaves nothing behind in the local cache.
func (s *DebtService) purgeCachedPayments(ctx context.Context, sess *session.Session, debtID uuid.UUID) {
	payments, err := s.cachedPayments(ctx, sess, debtID)
	if err != nil {
		s.log.WithError(err).WithField("debt_id", debtID).Warn("Cached payment lookup failed during cascade cleanup")
		return
	}
	for i := range payments {
		if err := s.mirror.Remove(ctx, sess.UserID, enum.KindDebtPayment, payments[i].ID); err != nil {
			s.log.WithError(err).WithField("payment_id", payments[i].ID).Warn("Cached payment removal failed")
		}
	}
}

// RepairReport summarises one orphaned-payment cleanup pass.
type RepairReport struct {
	OrphansFound   int `json:"orphans_found"`
	OrphansRemoved int `json:"orphans_removed"`
}

// RepairOrphanedPayments deletes payments left behind by interrupted
// cascade deletes. Admin only.
func (s *DebtService) RepairOrphanedPayments(ctx context.Context, sess *session.Session) (*RepairReport, error) {
	if err := s.gate.Require(ctx, sess, CapRepairPayments); err != nil {
		return nil, err
	}

	orphans, err := s.payments.ListOrphans(ctx, sess.UserID)
	if err != nil {
		return nil, apperror.NewStoreUnavailableError()
	}

	report := &RepairReport{OrphansFound: len(orphans)}
	seen := make(map[uuid.UUID]bool)
	for _, orphan := range orphans {
		if seen[orphan.DebtID] {
			continue
		}
		seen[orphan.DebtID] = true

		removed, err := s.payments.DeleteByDebt(ctx, sess.UserID, orphan.DebtID)
		if err != nil {
			s.log.WithError(err).WithField("debt_id", orphan.DebtID).
				Warn("Orphaned payment cleanup failed, will retry on next pass")
			continue
		}
		report.OrphansRemoved += int(removed)
	}

	if report.OrphansRemoved > 0 {
		s.recorder.Committed(ctx, sess, enum.KindDebtPayment, enum.AuditActionDelete, uuid.Nil,
			"Removed orphaned debt payments", nil, report, nil)
	}
	return report, nil
}

// Outstanding returns the summed balance of the owner's unpaid debts.
func (s *DebtService) Outstanding(ctx context.Context, sess *session.Session) (decimal.Decimal, error) {
	if sess.Offline() {
		return s.cachedOutstanding(ctx, sess)
	}
	total, err := s.debts.Outstanding(ctx, sess.UserID)
	if err != nil {
		s.log.WithError(err).Warn("Remote outstanding query failed, computing from cache")
		return s.cachedOutstanding(ctx, sess)
	}
	return total, nil
}

func (s *DebtService) cachedOutstanding(ctx context.Context, sess *session.Session) (decimal.Decimal, error) {
	debts, err := cache.ListAs[entity.Debt](ctx, s.mirror, sess.UserID, enum.KindDebt)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range debts {
		total = total.Add(debts[i].Balance())
	}
	return total, nil
}
