package entity

import (
	"encoding/json"
	"time"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is an immutable, append-only record of a mutation that passed
// the permission gate. Entries are never updated or deleted through the
// application's own API.
type AuditLog struct {
	ID               uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	ActorID          uuid.UUID             `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorEmail       string                `gorm:"size:255;not null" json:"actor_email"`
	ActorRole        enum.Role             `gorm:"size:20;not null" json:"actor_role"`
	Action           enum.AuditAction      `gorm:"size:20;not null;index" json:"action"`
	Table            enum.RecordKind       `gorm:"column:table_name;size:50;index" json:"table_name"`
	RecordID         string                `gorm:"size:64;index" json:"record_id"`
	Description      string                `gorm:"type:text" json:"description"`
	PreviousSnapshot json.RawMessage       `gorm:"type:jsonb" json:"previous_snapshot,omitempty"`
	NewSnapshot      json.RawMessage       `gorm:"type:jsonb" json:"new_snapshot,omitempty"`
	Mode             enum.ConnectivityMode `gorm:"size:10;not null" json:"mode"`
	CreatedAt        time.Time             `gorm:"index" json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new audit log entry
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
