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

// ExpenseService handles expense operations.
type ExpenseService struct {
	expenses repository.ExpenseRepository
	mirror   Mirror
	gate     *PermissionGate
	recorder *MutationRecorder
	log      *logrus.Logger
}

// NewExpenseService creates a new expense service
func NewExpenseService(expenses repository.ExpenseRepository, mirror Mirror, gate *PermissionGate, recorder *MutationRecorder, log *logrus.Logger) *ExpenseService {
	return &ExpenseService{
		expenses: expenses,
		mirror:   mirror,
		gate:     gate,
		recorder: recorder,
		log:      log,
	}
}

// CreateExpenseInput represents the create expense input
type CreateExpenseInput struct {
	Description string
	Amount      float64
	Category    string
	Date        time.Time
}

// CreateExpense records an expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, sess *session.Session, input *CreateExpenseInput) (*entity.Expense, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, "", apperror.NewFieldError("description", "Description is required")
	}

	now := time.Now()
	date := input.Date
	if date.IsZero() {
		date = now
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "general"
	}

	expense := &entity.Expense{
		ID:          uuid.New(),
		OwnerID:     sess.UserID,
		Description: strings.TrimSpace(input.Description),
		Amount:      decimal.NewFromFloat(numeric.SafeAmount(input.Amount)),
		Category:    category,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if sess.Offline() {
		s.recorder.Deferred(ctx, sess, enum.KindExpense, enum.AuditActionCreate, expense.ID,
			"Recorded expense: "+expense.Description, nil, expense, expense)
		return expense, enum.SyncStatusPending, nil
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		s.log.WithError(err).Warn("Remote expense create failed, keeping local copy pending")
		s.recorder.Deferred(ctx, sess, enum.KindExpense, enum.AuditActionCreate, expense.ID,
			"Recorded expense: "+expense.Description, nil, expense, expense)
		return expense, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	s.recorder.Committed(ctx, sess, enum.KindExpense, enum.AuditActionCreate, expense.ID,
		"Recorded expense: "+expense.Description, nil, expense, expense)
	return expense, enum.SyncStatusSynced, nil
}

// GetExpense retrieves an expense.
func (s *ExpenseService) GetExpense(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Expense, error) {
	if sess.Offline() {
		return s.cached(ctx, sess, id)
	}

	expense, err := s.expenses.GetByID(ctx, sess.UserID, id)
	if err != nil {
		s.log.WithError(err).Warn("Remote expense read failed, serving cached copy")
		return s.cached(ctx, sess, id)
	}
	if expense == nil {
		return nil, apperror.NewNotFoundError("Expense")
	}
	return expense, nil
}

func (s *ExpenseService) cached(ctx context.Context, sess *session.Session, id uuid.UUID) (*entity.Expense, error) {
	expense, err := cache.GetAs[entity.Expense](ctx, s.mirror, sess.UserID, enum.KindExpense, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, apperror.NewNotFoundError("Expense")
	}
	return expense, nil
}

// ListExpenses lists the owner's expenses.
func (s *ExpenseService) ListExpenses(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.Expense], error) {
	params.Pagination.Validate()

	if sess.Offline() {
		return s.cachedList(ctx, sess, params)
	}

	expenses, total, err := s.expenses.List(ctx, sess.UserID, params)
	if err != nil {
		s.log.WithError(err).Warn("Remote expense list failed, serving cached copies")
		return s.cachedList(ctx, sess, params)
	}

	pag := pagination.New(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewResult(expenses, pag), nil
}

func (s *ExpenseService) cachedList(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.Expense], error) {
	expenses, err := cache.ListAs[entity.Expense](ctx, s.mirror, sess.UserID, enum.KindExpense)
	if err != nil {
		return nil, err
	}
	return paginateSlice(expenses, &params.Pagination), nil
}

// UpdateExpenseInput represents the update expense input
type UpdateExpenseInput struct {
	Description *string
	Amount      *float64
	Category    *string
	Date        *time.Time
}

// UpdateExpense applies a partial update to an expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, sess *session.Session, id uuid.UUID, input *UpdateExpenseInput) (*entity.Expense, enum.SyncStatus, error) {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return nil, "", err
	}

	expense, err := s.GetExpense(ctx, sess, id)
	if err != nil {
		return nil, "", err
	}
	prev := *expense

	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, "", apperror.NewFieldError("description", "Description cannot be empty")
		}
		expense.Description = strings.TrimSpace(*input.Description)
	}
	if input.Amount != nil {
		expense.Amount = decimal.NewFromFloat(numeric.SafeAmount(*input.Amount))
	}
	if input.Category != nil {
		expense.Category = strings.TrimSpace(*input.Category)
	}
	if input.Date != nil {
		expense.Date = *input.Date
	}
	expense.UpdatedAt = time.Now()

	if sess.Offline() {
		s.recorder.Deferred(ctx, sess, enum.KindExpense, enum.AuditActionUpdate, expense.ID,
			"Updated expense: "+expense.Description, &prev, expense, expense)
		return expense, enum.SyncStatusPending, nil
	}

	if err := s.expenses.Update(ctx, expense); err != nil {
		s.log.WithError(err).Warn("Remote expense update failed, keeping local copy pending")
		s.recorder.Deferred(ctx, sess, enum.KindExpense, enum.AuditActionUpdate, expense.ID,
			"Updated expense: "+expense.Description, &prev, expense, expense)
		return expense, enum.SyncStatusPending, apperror.NewStoreUnavailableError()
	}

	s.recorder.Committed(ctx, sess, enum.KindExpense, enum.AuditActionUpdate, expense.ID,
		"Updated expense: "+expense.Description, &prev, expense, expense)
	return expense, enum.SyncStatusSynced, nil
}

// DeleteExpense deletes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	if err := s.gate.Require(ctx, sess, CapWriteRecords); err != nil {
		return err
	}

	expense, err := s.GetExpense(ctx, sess, id)
	if err != nil {
		return err
	}

	if sess.Offline() {
		s.recorder.DeferredDelete(ctx, sess, enum.KindExpense, id, "Deleted expense: "+expense.Description, expense)
		return nil
	}

	if err := s.expenses.Delete(ctx, sess.UserID, id); err != nil {
		s.log.WithError(err).Warn("Remote expense delete failed, tombstoning local copy")
		s.recorder.DeferredDelete(ctx, sess, enum.KindExpense, id, "Deleted expense: "+expense.Description, expense)
		return apperror.NewStoreUnavailableError()
	}

	s.recorder.CommittedDelete(ctx, sess, enum.KindExpense, id, "Deleted expense: "+expense.Description, expense)
	return nil
}
