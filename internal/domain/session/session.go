// Package session carries the authenticated identity through every ledger
// operation. It is built once per request from verified JWT claims and the
// client-declared connectivity mode, and passed explicitly rather than read
// from ambient globals so the permission gate and audit logger can be tested
// with synthetic identities.
package session

import (
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/google/uuid"
)

// Session identifies the actor of a ledger operation.
type Session struct {
	UserID uuid.UUID
	Email  string
	Role   enum.Role
	Mode   enum.ConnectivityMode
}

// New builds a session. An empty mode defaults to online.
func New(userID uuid.UUID, email string, role enum.Role, mode enum.ConnectivityMode) *Session {
	if mode != enum.ModeOffline {
		mode = enum.ModeOnline
	}
	return &Session{
		UserID: userID,
		Email:  email,
		Role:   role,
		Mode:   mode,
	}
}

// Offline reports whether the session declared itself disconnected.
func (s *Session) Offline() bool {
	return s.Mode == enum.ModeOffline
}
