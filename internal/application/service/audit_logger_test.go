package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogRecordsActorAndSnapshots(t *testing.T) {
	admin := newUser(enum.RoleAdmin)
	h := newHarness(admin)
	sess := sessionFor(admin, enum.ModeOffline)
	recordID := uuid.New()

	prev := map[string]int{"stock": 5}
	next := map[string]int{"stock": 3}
	h.audit.Log(context.Background(), sess, enum.AuditActionUpdate, enum.KindProduct, recordID, "Stock adjusted", prev, next)

	require.Equal(t, 1, h.auditRepo.count())
	entry := h.auditRepo.last()
	assert.Equal(t, admin.ID, entry.ActorID)
	assert.Equal(t, admin.Email, entry.ActorEmail)
	assert.Equal(t, enum.RoleAdmin, entry.ActorRole)
	assert.Equal(t, enum.AuditActionUpdate, entry.Action)
	assert.Equal(t, enum.KindProduct, entry.Table)
	assert.Equal(t, recordID.String(), entry.RecordID)
	assert.Equal(t, enum.ModeOffline, entry.Mode)
	assert.JSONEq(t, `{"stock":5}`, string(entry.PreviousSnapshot))
	assert.JSONEq(t, `{"stock":3}`, string(entry.NewSnapshot))
}

func TestAuditLogCreateHasNoPreviousSnapshot(t *testing.T) {
	admin := newUser(enum.RoleAdmin)
	h := newHarness(admin)

	h.audit.Log(context.Background(), sessionFor(admin, enum.ModeOnline),
		enum.AuditActionCreate, enum.KindSale, uuid.New(), "Recorded sale", nil, map[string]int{"qty": 1})

	entry := h.auditRepo.last()
	require.NotNil(t, entry)
	assert.Nil(t, entry.PreviousSnapshot)
	assert.NotNil(t, entry.NewSnapshot)
}

func TestAuditAppendFailureDoesNotPropagate(t *testing.T) {
	admin := newUser(enum.RoleAdmin)
	h := newHarness(admin)
	h.auditRepo.err = errors.New("disk full")

	// Must not panic or surface the error.
	h.audit.Log(context.Background(), sessionFor(admin, enum.ModeOnline),
		enum.AuditActionCreate, enum.KindProduct, uuid.New(), "Created product", nil, nil)

	assert.Equal(t, 0, h.auditRepo.count())
}

func TestAuditListRequiresCapability(t *testing.T) {
	admin := newUser(enum.RoleAdmin)
	staff := newUser(enum.RoleStaff)
	h := newHarness(admin, staff)
	ctx := context.Background()

	h.audit.Log(ctx, sessionFor(admin, enum.ModeOnline),
		enum.AuditActionCreate, enum.KindProduct, uuid.New(), "Created product", nil, &entity.Product{})

	adminResult, err := h.audit.List(ctx, sessionFor(admin, enum.ModeOnline), &repository.AuditFilterParams{})
	require.NoError(t, err)
	assert.Len(t, adminResult.Items, 1)

	// Staff get an empty page, not an error.
	staffResult, err := h.audit.List(ctx, sessionFor(staff, enum.ModeOnline), &repository.AuditFilterParams{})
	require.NoError(t, err)
	assert.Empty(t, staffResult.Items)
	assert.Zero(t, staffResult.Pagination.Total)
}
