package service

import (
	"context"
	"strings"
	"sync"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/dukabook/ledger-api/pkg/apperror"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Capability is a named privilege the gate can grant or deny.
type Capability string

const (
	// CapWriteRecords covers everyday ledger mutations and is granted to
	// every valid role.
	CapWriteRecords Capability = "write records"

	// Admin-only capabilities.
	CapDeleteDebt     Capability = "delete debts"
	CapViewAuditLogs  Capability = "view audit logs"
	CapManageRoles    Capability = "manage roles"
	CapRepairPayments Capability = "repair orphaned payments"
)

// PermissionGate resolves an actor's effective role and answers capability
// checks. Every mutating operation consults it before touching any store;
// a denial produces no store contact and no audit entry.
//
// The break-glass email from configuration always resolves to admin no
// matter what role is stored for that account. It exists so a locked-out
// owner can recover their own ledger and must be set with care.
type PermissionGate struct {
	users           repository.UserRepository
	breakGlassEmail string
	log             *logrus.Logger

	mu    sync.RWMutex
	roles map[uuid.UUID]enum.Role
}

// NewPermissionGate creates the gate. breakGlassEmail may be empty, which
// disables the override entirely.
func NewPermissionGate(users repository.UserRepository, breakGlassEmail string, log *logrus.Logger) *PermissionGate {
	return &PermissionGate{
		users:           users,
		breakGlassEmail: breakGlassEmail,
		log:             log,
		roles:           make(map[uuid.UUID]enum.Role),
	}
}

// Resolve returns the session's effective role. Roles are looked up from
// the identity store once and cached until Invalidate; if the store is
// unreachable the token's role claim is trusted so a disconnected session
// keeps working.
func (g *PermissionGate) Resolve(ctx context.Context, sess *session.Session) enum.Role {
	if g.breakGlassEmail != "" && strings.EqualFold(sess.Email, g.breakGlassEmail) {
		g.log.WithFields(logrus.Fields{
			"actor_id": sess.UserID,
			"email":    sess.Email,
		}).Warn("Break-glass override active, granting admin")
		return enum.RoleAdmin
	}

	g.mu.RLock()
	role, ok := g.roles[sess.UserID]
	g.mu.RUnlock()
	if ok {
		return role
	}

	user, err := g.users.GetByID(ctx, sess.UserID)
	if err != nil || user == nil {
		if err != nil {
			g.log.WithError(err).WithField("actor_id", sess.UserID).
				Warn("Role lookup failed, falling back to token claim")
		}
		return sess.Role
	}

	g.mu.Lock()
	g.roles[sess.UserID] = user.Role
	g.mu.Unlock()
	return user.Role
}

// Can reports whether the session holds the capability.
func (g *PermissionGate) Can(ctx context.Context, sess *session.Session, cap Capability) bool {
	role := g.Resolve(ctx, sess)
	if cap == CapWriteRecords {
		return role.Valid()
	}
	return role == enum.RoleAdmin
}

// Require returns PermissionDenied when the session lacks the capability.
func (g *PermissionGate) Require(ctx context.Context, sess *session.Session, cap Capability) error {
	if g.Can(ctx, sess, cap) {
		return nil
	}
	return apperror.NewPermissionDeniedError(string(cap))
}

// Invalidate drops the cached role for a user, called after role changes.
func (g *PermissionGate) Invalidate(userID uuid.UUID) {
	g.mu.Lock()
	delete(g.roles, userID)
	g.mu.Unlock()
}
