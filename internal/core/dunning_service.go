package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// MaxReminders is the number of dunning levels an invoice can go through.
const MaxReminders = 3

// ReminderPaymentDays is the grace period granted by every reminder.
const ReminderPaymentDays = 14

var reminderLevels = []ReminderLevel{ReminderFirst, ReminderSecond, ReminderThird}

var reminderFees = map[ReminderLevel]decimal.Decimal{
	ReminderFirst:  decimal.Zero,
	ReminderSecond: decimal.NewFromInt(20),
	ReminderThird:  decimal.NewFromInt(40),
}

// DunningEngine escalates unpaid invoices through reminder levels.
type DunningEngine interface {
	// CreateNextReminder issues the lowest missing reminder level and marks
	// the invoice OVERDUE.
	CreateNextReminder(ctx context.Context, actor Actor, invoiceID int) (*Reminder, error)
	ListReminders(ctx context.Context, actor Actor, invoiceID int) ([]Reminder, error)
	// MarkOverdue moves every SENT or PARTIAL invoice of the company whose due
	// date lies before asOf to OVERDUE and returns the invoices it changed.
	MarkOverdue(ctx context.Context, actor Actor, asOf time.Time) ([]Invoice, error)
}

type dunningEngine struct {
	pool  *pgxpool.Pool
	audit AuditLog
	now   func() time.Time
}

func NewDunningEngine(pool *pgxpool.Pool, audit AuditLog, now func() time.Time) DunningEngine {
	if now == nil {
		now = time.Now
	}
	return &dunningEngine{pool: pool, audit: audit, now: now}
}

// NextReminderLevel returns the lowest level not in existing. When all levels
// are taken it returns a *LimitExceededError with ID left at zero.
func NextReminderLevel(existing []ReminderLevel) (ReminderLevel, error) {
	taken := make(map[ReminderLevel]bool, len(existing))
	for _, l := range existing {
		taken[l] = true
	}
	for _, l := range reminderLevels {
		if !taken[l] {
			return l, nil
		}
	}
	return "", &LimitExceededError{Entity: "invoice", Limit: MaxReminders, Reason: "maximum reminders reached"}
}

// ReminderFee returns the fixed fee of level.
func ReminderFee(level ReminderLevel) decimal.Decimal {
	if fee, ok := reminderFees[level]; ok {
		return fee
	}
	return decimal.Zero
}

func (e *dunningEngine) CreateNextReminder(ctx context.Context, actor Actor, invoiceID int) (*Reminder, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The invoice lock also serializes concurrent reminders for it.
	inv, err := lockInvoiceTx(ctx, tx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	if !InvoiceLifecycle.Can(inv.Status, EventRemind) {
		return nil, &InvalidStateError{Entity: "invoice", ID: invoiceID, Status: string(inv.Status), Op: "send reminder"}
	}

	existing, err := listReminderLevels(ctx, tx, inv.ID)
	if err != nil {
		return nil, err
	}
	level, err := NextReminderLevel(existing)
	if err != nil {
		var le *LimitExceededError
		if errors.As(err, &le) {
			le.ID = invoiceID
		}
		return nil, err
	}

	now := e.now()
	r := Reminder{
		CompanyID: actor.CompanyID,
		InvoiceID: inv.ID,
		Level:     level,
		Fee:       ReminderFee(level),
		SentAt:    now,
		DueDate:   dateOnly(now).AddDate(0, 0, ReminderPaymentDays),
		CreatedBy: actor.UserID,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO reminders (company_id, invoice_id, level, fee, sent_at, due_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, r.CompanyID, r.InvoiceID, string(r.Level), r.Fee, r.SentAt, r.DueDate, r.CreatedBy).Scan(&r.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Entity: "reminder", Key: fmt.Sprintf("%s/%s", inv.Number, level)}
		}
		return nil, fmt.Errorf("failed to insert reminder: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2",
		string(StatusOverdue), inv.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark invoice %d overdue: %w", inv.ID, err)
	}

	if err := e.audit.RecordTx(ctx, tx, AuditEntry{
		UserID:     actor.UserID,
		Action:     "create_reminder",
		EntityType: string(KindInvoice),
		EntityID:   inv.ID,
		OldValue:   map[string]any{"status": inv.Status},
		NewValue: map[string]any{
			"status":      StatusOverdue,
			"reminder_id": r.ID,
			"level":       r.Level,
			"fee":         r.Fee,
		},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reminder: %w", err)
	}
	return &r, nil
}

func listReminderLevels(ctx context.Context, q pgxQuerier, invoiceID int) ([]ReminderLevel, error) {
	rows, err := q.Query(ctx, "SELECT level FROM reminders WHERE invoice_id = $1", invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder levels: %w", err)
	}
	defer rows.Close()

	var levels []ReminderLevel
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("failed to scan reminder level: %w", err)
		}
		levels = append(levels, ReminderLevel(l))
	}
	return levels, rows.Err()
}

func (e *dunningEngine) ListReminders(ctx context.Context, actor Actor, invoiceID int) ([]Reminder, error) {
	if _, err := getInvoiceHeader(ctx, e.pool, actor, invoiceID); err != nil {
		return nil, err
	}

	rows, err := e.pool.Query(ctx, `
		SELECT id, company_id, invoice_id, level, fee, sent_at, due_date, created_by
		FROM reminders
		WHERE invoice_id = $1 AND company_id = $2
		ORDER BY sent_at, id
	`, invoiceID, actor.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	reminders := []Reminder{}
	for rows.Next() {
		var r Reminder
		var level string
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.InvoiceID, &level, &r.Fee, &r.SentAt, &r.DueDate, &r.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		r.Level = ReminderLevel(level)
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (e *dunningEngine) MarkOverdue(ctx context.Context, actor Actor, asOf time.Time) ([]Invoice, error) {
	if asOf.IsZero() {
		asOf = e.now()
	}
	cutoff := dateOnly(asOf)

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		"SELECT "+invoiceColumns+` FROM invoices
		WHERE company_id = $1 AND status = ANY($2) AND due_date < $3
		ORDER BY id
		FOR UPDATE`,
		actor.CompanyID, []string{string(StatusSent), string(StatusPartial)}, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query lapsed invoices: %w", err)
	}
	var lapsed []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		lapsed = append(lapsed, *inv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lapsed invoices: %w", err)
	}

	changed := []Invoice{}
	for _, inv := range lapsed {
		to, err := InvoiceLifecycle.Next(inv.ID, inv.Status, EventLapse)
		if err != nil {
			return nil, err
		}
		if err := setStatusTx(ctx, tx, e.audit, "invoices", KindInvoice, actor, inv.ID, inv.Status, to, string(EventLapse)); err != nil {
			return nil, err
		}
		inv.Status = to
		changed = append(changed, inv)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit overdue sweep: %w", err)
	}
	return changed, nil
}
