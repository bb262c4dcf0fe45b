package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/pkg/apperror"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestGateStaffDeniedAdminCapabilities(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	gate := NewPermissionGate(newFakeUserRepo(staff), "", quietLogger())
	sess := sessionFor(staff, enum.ModeOnline)
	ctx := context.Background()

	assert.True(t, gate.Can(ctx, sess, CapWriteRecords))

	for _, cap := range []Capability{CapDeleteDebt, CapViewAuditLogs, CapManageRoles, CapRepairPayments} {
		assert.False(t, gate.Can(ctx, sess, cap), "staff must not hold %s", cap)

		err := gate.Require(ctx, sess, cap)
		require.Error(t, err)
		appErr := apperror.GetAppError(err)
		assert.Equal(t, 403, appErr.Code)
	}
}

func TestGateAdminHoldsAllCapabilities(t *testing.T) {
	admin := newUser(enum.RoleAdmin)
	gate := NewPermissionGate(newFakeUserRepo(admin), "", quietLogger())
	sess := sessionFor(admin, enum.ModeOnline)
	ctx := context.Background()

	for _, cap := range []Capability{CapWriteRecords, CapDeleteDebt, CapViewAuditLogs, CapManageRoles, CapRepairPayments} {
		assert.NoError(t, gate.Require(ctx, sess, cap))
	}
}

func TestGateBreakGlassOverridesStoredRole(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	gate := NewPermissionGate(newFakeUserRepo(staff), staff.Email, quietLogger())
	sess := sessionFor(staff, enum.ModeOnline)
	ctx := context.Background()

	assert.Equal(t, enum.RoleAdmin, gate.Resolve(ctx, sess))
	assert.NoError(t, gate.Require(ctx, sess, CapManageRoles))
}

func TestGateBreakGlassMatchIsCaseInsensitive(t *testing.T) {
	staff := newUser(enum.RoleStaff)
	staff.Email = "owner@example.com"
	gate := NewPermissionGate(newFakeUserRepo(staff), "OWNER@Example.COM", quietLogger())
	sess := sessionFor(staff, enum.ModeOnline)

	assert.Equal(t, enum.RoleAdmin, gate.Resolve(context.Background(), sess))
}

func TestGateCachesRoleUntilInvalidated(t *testing.T) {
	user := newUser(enum.RoleStaff)
	repo := newFakeUserRepo(user)
	gate := NewPermissionGate(repo, "", quietLogger())
	sess := sessionFor(user, enum.ModeOnline)
	ctx := context.Background()

	assert.Equal(t, enum.RoleStaff, gate.Resolve(ctx, sess))

	require.NoError(t, repo.UpdateRole(ctx, user.ID, enum.RoleAdmin))
	assert.Equal(t, enum.RoleStaff, gate.Resolve(ctx, sess), "cached role should still apply")

	gate.Invalidate(user.ID)
	assert.Equal(t, enum.RoleAdmin, gate.Resolve(ctx, sess))
}

func TestGateFallsBackToTokenClaimWhenStoreUnreachable(t *testing.T) {
	user := newUser(enum.RoleAdmin)
	repo := newFakeUserRepo()
	repo.err = errors.New("connection refused")
	gate := NewPermissionGate(repo, "", quietLogger())
	sess := sessionFor(user, enum.ModeOffline)

	assert.Equal(t, enum.RoleAdmin, gate.Resolve(context.Background(), sess))
}

func TestGateDeniesUnknownRole(t *testing.T) {
	user := newUser(enum.Role("viewer"))
	gate := NewPermissionGate(newFakeUserRepo(), "", quietLogger())
	sess := sessionFor(user, enum.ModeOnline)

	assert.False(t, gate.Can(context.Background(), sess, CapWriteRecords))
}
