package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// lockedStatus is the current state of a document row held FOR UPDATE.
type lockedStatus struct {
	Status Status
	Number string
}

// lockDocumentTx locks one company-scoped document row and returns its status.
// table is always one of the package's own table names.
func lockDocumentTx(ctx context.Context, tx pgx.Tx, table string, kind DocumentKind, actor Actor, id int) (*lockedStatus, error) {
	var ls lockedStatus
	err := tx.QueryRow(ctx,
		fmt.Sprintf("SELECT status, number FROM %s WHERE id = $1 AND company_id = $2 FOR UPDATE", table),
		id, actor.CompanyID,
	).Scan(&ls.Status, &ls.Number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: entityName(kind), ID: id}
		}
		return nil, fmt.Errorf("failed to lock %s %d: %w", entityName(kind), id, err)
	}
	return &ls, nil
}

// setStatusTx writes the new status and audits the change.
func setStatusTx(ctx context.Context, tx pgx.Tx, audit AuditLog, table string, kind DocumentKind, actor Actor, id int, from, to Status, action string) error {
	_, err := tx.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET status = $1, updated_at = NOW() WHERE id = $2", table),
		string(to), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s %d status: %w", entityName(kind), id, err)
	}
	return audit.RecordTx(ctx, tx, AuditEntry{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: string(kind),
		EntityID:   id,
		OldValue:   map[string]Status{"status": from},
		NewValue:   map[string]Status{"status": to},
	})
}

// transitionTx applies event to a locked document through machine.
func transitionTx(ctx context.Context, tx pgx.Tx, audit AuditLog, machine *StateMachine, table string, actor Actor, id int, event Event) error {
	cur, err := lockDocumentTx(ctx, tx, table, machine.kind, actor, id)
	if err != nil {
		return err
	}
	to, err := machine.Next(id, cur.Status, event)
	if err != nil {
		return err
	}
	return setStatusTx(ctx, tx, audit, table, machine.kind, actor, id, cur.Status, to, string(event))
}

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func orToday(t time.Time, now func() time.Time) time.Time {
	if t.IsZero() {
		return dateOnly(now())
	}
	return dateOnly(t)
}
