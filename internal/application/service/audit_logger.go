package service

import (
	"context"
	"encoding/json"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/dukabook/ledger-api/pkg/pagination"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuditLogger appends to the immutable audit trail. Appends are
// best-effort: a failed append is logged for diagnostics and never fails
// or rolls back the mutation that produced it.
type AuditLogger struct {
	repo repository.AuditRepository
	gate *PermissionGate
	log  *logrus.Logger
}

// NewAuditLogger creates the audit logger.
func NewAuditLogger(repo repository.AuditRepository, gate *PermissionGate, log *logrus.Logger) *AuditLogger {
	return &AuditLogger{repo: repo, gate: gate, log: log}
}

// Log appends one entry. prev and next are the record before and after the
// mutation; either may be nil (create has no prev, delete no next). The
// session's connectivity mode is recorded with the entry.
func (a *AuditLogger) Log(ctx context.Context, sess *session.Session, action enum.AuditAction, kind enum.RecordKind, recordID uuid.UUID, description string, prev, next interface{}) {
	entry := &entity.AuditLog{
		ActorID:          sess.UserID,
		ActorEmail:       sess.Email,
		ActorRole:        a.gate.Resolve(ctx, sess),
		Action:           action,
		Table:            kind,
		RecordID:         recordID.String(),
		Description:      description,
		PreviousSnapshot: snapshot(prev),
		NewSnapshot:      snapshot(next),
		Mode:             sess.Mode,
	}

	if err := a.repo.Create(ctx, entry); err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"actor_id":  sess.UserID,
			"action":    action,
			"table":     kind,
			"record_id": recordID,
		}).Error("Audit append failed")
	}
}

// List returns audit entries for callers holding CapViewAuditLogs. Anyone
// else receives an empty page rather than an error, so the endpoint does
// not leak whether a trail exists.
func (a *AuditLogger) List(ctx context.Context, sess *session.Session, params *repository.AuditFilterParams) (*pagination.Result[entity.AuditLog], error) {
	params.Pagination.Validate()

	if !a.gate.Can(ctx, sess, CapViewAuditLogs) {
		pag := pagination.New(params.Pagination.Page, params.Pagination.PerPage, 0)
		return pagination.NewResult([]entity.AuditLog{}, pag), nil
	}

	entries, total, err := a.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.New(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewResult(entries, pag), nil
}

func snapshot(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
