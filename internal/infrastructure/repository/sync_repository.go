package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	domainRepo "github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type syncRepository struct {
	db *gorm.DB
}

// NewSyncRepository creates the replay repository the reconciler uses to
// push locally cached writes to the remote store.
func NewSyncRepository(db *gorm.DB) domainRepo.SyncRepository {
	return &syncRepository{db: db}
}

// Upsert writes a cached JSON snapshot to the remote store. Last writer
// wins: the whole row is replaced on conflict.
func (r *syncRepository) Upsert(ctx context.Context, kind enum.RecordKind, payload []byte) error {
	model, err := unmarshalKind(kind, payload)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

func (r *syncRepository) Remove(ctx context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error {
	model, err := modelForKind(kind)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Scopes(OwnerScope(ownerID)).
		Delete(model, "id = ?", recordID).Error
}

func unmarshalKind(kind enum.RecordKind, payload []byte) (interface{}, error) {
	model, err := modelForKind(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, model); err != nil {
		return nil, fmt.Errorf("decode cached %s: %w", kind, err)
	}
	return model, nil
}

func modelForKind(kind enum.RecordKind) (interface{}, error) {
	switch kind {
	case enum.KindProduct:
		return &entity.Product{}, nil
	case enum.KindSale:
		return &entity.Sale{}, nil
	case enum.KindExpense:
		return &entity.Expense{}, nil
	case enum.KindCustomer:
		return &entity.Customer{}, nil
	case enum.KindDebt:
		return &entity.Debt{}, nil
	case enum.KindDebtPayment:
		return &entity.DebtPayment{}, nil
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}
