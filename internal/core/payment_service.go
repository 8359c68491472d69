package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentLedger records payments against invoices. Payments are append-only.
type PaymentLedger interface {
	// RecordPayment appends a payment, adds it to the invoice's paid amount and
	// derives the new invoice status. Overpayment is accepted.
	RecordPayment(ctx context.Context, actor Actor, invoiceID int, in PaymentInput) (*Payment, error)
	ListPayments(ctx context.Context, actor Actor, invoiceID int) ([]Payment, error)
}

type paymentLedger struct {
	pool  *pgxpool.Pool
	audit AuditLog
	now   func() time.Time
}

func NewPaymentLedger(pool *pgxpool.Pool, audit AuditLog, now func() time.Time) PaymentLedger {
	if now == nil {
		now = time.Now
	}
	return &paymentLedger{pool: pool, audit: audit, now: now}
}

// DerivePaymentStatus returns the invoice status after paid amount reaches
// newPaid: PAID once nothing remains, PARTIAL while something was paid,
// otherwise current.
func DerivePaymentStatus(total, newPaid decimal.Decimal, current Status) Status {
	remaining := total.Sub(newPaid)
	switch {
	case remaining.Sign() <= 0:
		return StatusPaid
	case newPaid.Sign() > 0:
		return StatusPartial
	}
	return current
}

func (l *paymentLedger) RecordPayment(ctx context.Context, actor Actor, invoiceID int, in PaymentInput) (*Payment, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	paidOn := orToday(in.PaidOn, l.now)

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The row lock makes concurrent payments read each other's paid_amount.
	inv, err := lockInvoiceTx(ctx, tx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusCancelled {
		return nil, &InvalidStateError{Entity: "invoice", ID: invoiceID, Status: string(inv.Status), Op: "record payment"}
	}

	newPaid := inv.PaidAmount.Add(in.Amount)
	newStatus := DerivePaymentStatus(inv.Total, newPaid, inv.Status)

	var p Payment
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (company_id, invoice_id, amount, method, paid_on, reference, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, company_id, invoice_id, amount, method, paid_on, reference, created_by, created_at
	`, actor.CompanyID, inv.ID, in.Amount, in.Method, paidOn, in.Reference, actor.UserID).Scan(
		&p.ID, &p.CompanyID, &p.InvoiceID, &p.Amount, &p.Method, &p.PaidOn, &p.Reference, &p.CreatedBy, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invoices SET paid_amount = $1, status = $2, updated_at = NOW() WHERE id = $3
	`, newPaid, string(newStatus), inv.ID); err != nil {
		return nil, fmt.Errorf("failed to update invoice %d after payment: %w", inv.ID, err)
	}

	if err := l.audit.RecordTx(ctx, tx, AuditEntry{
		UserID:     actor.UserID,
		Action:     "record_payment",
		EntityType: string(KindInvoice),
		EntityID:   inv.ID,
		OldValue:   map[string]any{"paid_amount": inv.PaidAmount, "status": inv.Status},
		NewValue: map[string]any{
			"payment_id":  p.ID,
			"amount":      in.Amount,
			"method":      in.Method,
			"paid_amount": newPaid,
			"status":      newStatus,
		},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return &p, nil
}

func (l *paymentLedger) ListPayments(ctx context.Context, actor Actor, invoiceID int) ([]Payment, error) {
	if _, err := getInvoiceHeader(ctx, l.pool, actor, invoiceID); err != nil {
		return nil, err
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, company_id, invoice_id, amount, method, paid_on, reference, created_by, created_at
		FROM payments
		WHERE invoice_id = $1 AND company_id = $2
		ORDER BY id
	`, invoiceID, actor.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.InvoiceID, &p.Amount, &p.Method, &p.PaidOn,
			&p.Reference, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
