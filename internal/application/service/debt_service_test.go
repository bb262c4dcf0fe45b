package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/pkg/apperror"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type debtFixture struct {
	svc       *DebtService
	h         *harness
	debts     *fakeDebtRepo
	payments  *fakePaymentRepo
	customers *fakeCustomerRepo
	customer  *entity.Customer
}

func newDebtFixture(t *testing.T, user *entity.User) *debtFixture {
	t.Helper()
	h := newHarness(user)
	payments := newFakePaymentRepo()
	debts := newFakeDebtRepo(payments)
	customer := &entity.Customer{ID: uuid.New(), OwnerID: user.ID, Name: "Wanjiku"}
	customers := newFakeCustomerRepo(customer)
	svc := NewDebtService(debts, payments, customers, h.mirror, h.gate, h.recorder, h.log)
	return &debtFixture{svc: svc, h: h, debts: debts, payments: payments, customers: customers, customer: customer}
}

func TestCreateDebtSumsItemsAndStartsPending(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	f := newDebtFixture(t, staff)
	sess := sessionFor(staff, enum.ModeOnline)

	debt, status, err := f.svc.CreateDebt(context.Background(), sess, &CreateDebtInput{
		CustomerID:  f.customer.ID,
		Description: "Monthly groceries",
		Items: []DebtItemInput{
			{ItemName: "Flour", Quantity: 2, Price: 150},
			{ItemName: "Sugar", Quantity: 1, Price: 200},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, enum.SyncStatusSynced, status)
	assert.True(t, debt.TotalAmount.Equal(decimal.NewFromInt(500)), "total %s", debt.TotalAmount)
	assert.Equal(t, enum.DebtStatusPending, debt.Status)
	assert.Equal(t, "Wanjiku", debt.CustomerName)
	assert.True(t, debt.Balance().Equal(decimal.NewFromInt(500)))
}

func TestRecordPaymentDerivesPartialThenPaid(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	f := newDebtFixture(t, staff)
	sess := sessionFor(staff, enum.ModeOnline)
	ctx := context.Background()

	debt, _, err := f.svc.CreateDebt(ctx, sess, &CreateDebtInput{
		CustomerID: f.customer.ID,
		Items:      []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 5000}},
	})
	require.NoError(t, err)

	_, status, err := f.svc.RecordPayment(ctx, sess, debt.ID, &RecordPaymentInput{Amount: 2000})
	require.NoError(t, err)
	assert.Equal(t, enum.SyncStatusSynced, status)

	current, err := f.svc.GetDebt(ctx, sess, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.DebtStatusPartial, current.Status)
	assert.True(t, current.Balance().Equal(decimal.NewFromInt(3000)))

	_, _, err = f.svc.RecordPayment(ctx, sess, debt.ID, &RecordPaymentInput{Amount: 3000})
	require.NoError(t, err)

	current, err = f.svc.GetDebt(ctx, sess, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.DebtStatusPaid, current.Status)
	assert.True(t, current.Balance().IsZero())
}

func TestRecordPaymentRejectsOverpaymentBeforeAnyWrite(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	f := newDebtFixture(t, staff)
	sess := sessionFor(staff, enum.ModeOnline)
	ctx := context.Background()

	debt, _, err := f.svc.CreateDebt(ctx, sess, &CreateDebtInput{
		CustomerID: f.customer.ID,
		Items:      []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 1000}},
	})
	require.NoError(t, err)
	auditBefore := f.h.auditRepo.count()

	_, _, err = f.svc.RecordPayment(ctx, sess, debt.ID, &RecordPaymentInput{Amount: 1500})
	require.Error(t, err)
	assert.Equal(t, 422, apperror.GetAppError(err).Code)
	assert.Zero(t, f.debts.paymentCalls, "no store write on validation failure")
	assert.Equal(t, auditBefore, f.h.auditRepo.count(), "no audit entry on validation failure")

	current, err := f.svc.GetDebt(ctx, sess, debt.ID)
	require.NoError(t, err)
	assert.True(t, current.PaidAmount.IsZero(), "debt unchanged")
}

func TestRecordPaymentRejectsNonPositiveAmounts(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	f := newDebtFixture(t, staff)
	sess := sessionFor(staff, enum.ModeOnline)
	ctx := context.Background()

	debt, _, err := f.svc.CreateDebt(ctx, sess, &CreateDebtInput{
		CustomerID: f.customer.ID,
		Items:      []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 1000}},
	})
	require.NoError(t, err)

	for _, amount := range []float64{0, -50} {
		_, _, err := f.svc.RecordPayment(ctx, sess, debt.ID, &RecordPaymentInput{Amount: amount})
		require.Error(t, err, "amount %v", amount)
	}
}

func TestRecordPaymentOfflineStaysPendingWithDebtMirrored(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	f := newDebtFixture(t, staff)
	ctx := context.Background()

	debt, _, err := f.svc.CreateDebt(ctx, sessionFor(staff, enum.ModeOnline), &CreateDebtInput{
		CustomerID: f.customer.ID,
		Items:      []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 800}},
	})
	require.NoError(t, err)

	offline := sessionFor(staff, enum.ModeOffline)
	payment, status, err := f.svc.RecordPayment(ctx, offline, debt.ID, &RecordPaymentInput{Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, enum.SyncStatusPending, status)
	assert.Zero(t, f.debts.paymentCalls)

	paymentStatus, ok := f.h.mirror.status(staff.ID, enum.KindDebtPayment, payment.ID)
	require.True(t, ok)
	assert.Equal(t, enum.SyncStatusPending, paymentStatus)

	debtStatus, ok := f.h.mirror.status(staff.ID, enum.KindDebt, debt.ID)
	require.True(t, ok)
	assert.Equal(t, enum.SyncStatusPending, debtStatus, "updated debt mirrored pending alongside payment")
}

func TestUpdateDebtItemsRederivesStatusAgainstPaidAmount(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	f := newDebtFixture(t, staff)
	sess := sessionFor(staff, enum.ModeOnline)
	ctx := context.Background()

	debt, _, err := f.svc.CreateDebt(ctx, sess, &CreateDebtInput{
		CustomerID: f.customer.ID,
		Items:      []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 1000}},
	})
	require.NoError(t, err)

	_, _, err = f.svc.RecordPayment(ctx, sess, debt.ID, &RecordPaymentInput{Amount: 600})
	require.NoError(t, err)

	// Shrinking the items below what was already paid flips the debt to paid.
	updated, _, err := f.svc.UpdateDebt(ctx, sess, debt.ID, &UpdateDebtInput{
		Items: []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 500}},
	})
	require.NoError(t, err)
	assert.Equal(t, enum.DebtStatusPaid, updated.Status)
	assert.True(t, updated.Balance().IsZero(), "balance floors at zero")
}

func TestDeleteDebtRequiresAdmin(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	f := newDebtFixture(t, staff)
	sess := sessionFor(staff, enum.ModeOnline)
	ctx := context.Background()

	debt, _, err := f.svc.CreateDebt(ctx, sess, &CreateDebtInput{
		CustomerID: f.customer.ID,
		Items:      []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 100}},
	})
	require.NoError(t, err)
	auditBefore := f.h.auditRepo.count()

	err = f.svc.DeleteDebt(ctx, sess, debt.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperror.GetAppError(err).Code)

	// Denial leaves everything untouched.
	current, err := f.svc.GetDebt(ctx, sess, debt.ID)
	require.NoError(t, err)
	assert.NotNil(t, current)
	assert.Equal(t, auditBefore, f.h.auditRepo.count())
	assert.Empty(t, f.debts.pendingDeletes)
}

func TestDeleteDebtCascadesPaymentsThenParent(t *testing.T) {
	admin := newUser(enum.RoleAdmin)
	f := newDebtFixture(t, admin)
	sess := sessionFor(admin, enum.ModeOnline)
	ctx := context.Background()

	debt, _, err := f.svc.CreateDebt(ctx, sess, &CreateDebtInput{
		CustomerID: f.customer.ID,
		Items:      []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 900}},
	})
	require.NoError(t, err)
	_, _, err = f.svc.RecordPayment(ctx, sess, debt.ID, &RecordPaymentInput{Amount: 400})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteDebt(ctx, sess, debt.ID))

	_, err = f.svc.GetDebt(ctx, sess, debt.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperror.GetAppError(err).Code)

	remaining, err := f.payments.ListByDebt(ctx, admin.ID, debt.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeleteDebtPurgesCachedPayments(t *testing.T) {
	admin := newUser(enum.RoleAdmin)
	f := newDebtFixture(t, admin)
	sess := sessionFor(admin, enum.ModeOnline)
	ctx := context.Background()

	debt, _, err := f.svc.CreateDebt(ctx, sess, &CreateDebtInput{
		CustomerID: f.customer.ID,
		Items:      []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 600}},
	})
	require.NoError(t, err)
	payment, _, err := f.svc.RecordPayment(ctx, sess, debt.ID, &RecordPaymentInput{Amount: 250})
	require.NoError(t, err)

	_, ok := f.h.mirror.status(admin.ID, enum.KindDebtPayment, payment.ID)
	require.True(t, ok, "payment mirrored before the cascade")

	require.NoError(t, f.svc.DeleteDebt(ctx, sess, debt.ID))

	_, ok = f.h.mirror.status(admin.ID, enum.KindDebtPayment, payment.ID)
	assert.False(t, ok, "cascade removes the payment's mirror entry with the parent's")
	_, ok = f.h.mirror.status(admin.ID, enum.KindDebt, debt.ID)
	assert.False(t, ok)
}

func TestDeleteDebtPartialCascadeSurfacesDistinctly(t *testing.T) {
	admin := newUser(enum.RoleAdmin)
	f := newDebtFixture(t, admin)
	sess := sessionFor(admin, enum.ModeOnline)
	ctx := context.Background()

	debt, _, err := f.svc.CreateDebt(ctx, sess, &CreateDebtInput{
		CustomerID: f.customer.ID,
		Items:      []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 900}},
	})
	require.NoError(t, err)

	f.debts.deleteErr = errors.New("connection reset")
	err = f.svc.DeleteDebt(ctx, sess, debt.ID)
	require.Error(t, err)

	var cascade *apperror.PartialCascadeError
	require.ErrorAs(t, err, &cascade)
	assert.Equal(t, debt.ID, cascade.DebtID)
	assert.Equal(t, 409, apperror.GetAppError(err).Code)

	// The debt is parked mid-cascade and invisible to normal reads.
	assert.True(t, f.debts.pendingDeletes[debt.ID])
	_, err = f.svc.GetDebt(ctx, sess, debt.ID)
	require.Error(t, err)
}

func TestDeleteDebtOfflineRefused(t *testing.T) {
	admin := newUser(enum.RoleAdmin)
	f := newDebtFixture(t, admin)
	ctx := context.Background()

	debt, _, err := f.svc.CreateDebt(ctx, sessionFor(admin, enum.ModeOnline), &CreateDebtInput{
		CustomerID: f.customer.ID,
		Items:      []DebtItemInput{{ItemName: "Stock", Quantity: 1, Price: 100}},
	})
	require.NoError(t, err)

	err = f.svc.DeleteDebt(ctx, sessionFor(admin, enum.ModeOffline), debt.ID)
	require.Error(t, err)
	assert.Empty(t, f.debts.pendingDeletes)
}

func TestRepairOrphanedPaymentsRemovesLeftovers(t *testing.T) {
	admin := newUser(enum.RoleAdmin)
	f := newDebtFixture(t, admin)
	sess := sessionFor(admin, enum.ModeOnline)
	ctx := context.Background()

	orphanDebtID := uuid.New()
	f.payments.orphans = []entity.DebtPayment{
		{ID: uuid.New(), OwnerID: admin.ID, DebtID: orphanDebtID, Amount: decimal.NewFromInt(100)},
		{ID: uuid.New(), OwnerID: admin.ID, DebtID: orphanDebtID, Amount: decimal.NewFromInt(200)},
	}

	report, err := f.svc.RepairOrphanedPayments(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 2, report.OrphansFound)
	assert.Equal(t, 2, report.OrphansRemoved)

	leftover, err := f.payments.ListOrphans(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, leftover)
}

func TestRepairOrphanedPaymentsRequiresAdmin(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	f := newDebtFixture(t, staff)

	_, err := f.svc.RepairOrphanedPayments(context.Background(), sessionFor(staff, enum.ModeOnline))
	require.Error(t, err)
	assert.Equal(t, 403, apperror.GetAppError(err).Code)
}
