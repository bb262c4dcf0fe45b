package service

import (
	"io"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// harness wires the cross-cutting collaborators every service test needs.
type harness struct {
	log        *logrus.Logger
	mirror     *fakeMirror
	auditRepo  *fakeAuditRepo
	events     *fakePublisher
	users      *fakeUserRepo
	syncRepo   *fakeSyncRepo
	gate       *PermissionGate
	audit      *AuditLogger
	reconciler *Reconciler
	recorder   *MutationRecorder
}

func newHarness(users ...*entity.User) *harness {
	log := logrus.New()
	log.SetOutput(io.Discard)

	h := &harness{
		log:       log,
		mirror:    newFakeMirror(),
		auditRepo: &fakeAuditRepo{},
		events:    &fakePublisher{},
		users:     newFakeUserRepo(users...),
		syncRepo:  &fakeSyncRepo{},
	}
	h.gate = NewPermissionGate(h.users, "", log)
	h.audit = NewAuditLogger(h.auditRepo, h.gate, log)
	h.reconciler = NewReconciler(h.mirror, h.syncRepo, h.audit, log)
	h.recorder = NewMutationRecorder(h.mirror, h.audit, h.events, h.reconciler, log)
	return h
}

func newUser(role enum.Role) *entity.User {
	return &entity.User{
		ID:    uuid.New(),
		Name:  "Test User",
		Email: uuid.New().String() + "@example.com",
		Role:  role,
	}
}

func sessionFor(user *entity.User, mode enum.ConnectivityMode) *session.Session {
	return session.New(user.ID, user.Email, user.Role, mode)
}
