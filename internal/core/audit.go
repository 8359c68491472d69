package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// AuditLog records who changed what. RecordTx writes inside the caller's
// transaction so the audit row commits or rolls back with the change itself.
type AuditLog interface {
	RecordTx(ctx context.Context, tx pgx.Tx, entry AuditEntry) error
}

type auditLog struct{}

// NewAuditLog returns an AuditLog backed by the audit_log table.
func NewAuditLog() AuditLog {
	return auditLog{}
}

func (auditLog) RecordTx(ctx context.Context, tx pgx.Tx, entry AuditEntry) error {
	oldValue, err := marshalAuditValue(entry.OldValue)
	if err != nil {
		return err
	}
	newValue, err := marshalAuditValue(entry.NewValue)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO audit_log (user_id, action, entity_type, entity_id, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.UserID, entry.Action, entry.EntityType, entry.EntityID, oldValue, newValue)
	if err != nil {
		return fmt.Errorf("failed to write audit entry %s %s/%d: %w", entry.Action, entry.EntityType, entry.EntityID, err)
	}
	return nil
}

func marshalAuditValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit value: %w", err)
	}
	return b, nil
}
