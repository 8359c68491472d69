package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CreditNoteService issues credit notes against invoices.
type CreditNoteService interface {
	CreateFromInvoice(ctx context.Context, actor Actor, invoiceID int, in CreditNoteInput) (*CreditNote, error)
	GetCreditNote(ctx context.Context, actor Actor, creditNoteID int) (*CreditNote, error)
	// ListCreditNotes returns all credit notes of the company, or only those
	// of one invoice when invoiceID is set.
	ListCreditNotes(ctx context.Context, actor Actor, invoiceID *int) ([]CreditNote, error)
}

type creditNoteService struct {
	pool  *pgxpool.Pool
	seq   SequenceAllocator
	audit AuditLog
	now   func() time.Time
}

func NewCreditNoteService(pool *pgxpool.Pool, seq SequenceAllocator, audit AuditLog, now func() time.Time) CreditNoteService {
	if now == nil {
		now = time.Now
	}
	return &creditNoteService{pool: pool, seq: seq, audit: audit, now: now}
}

const creditNoteColumns = `
	id, company_id, number, invoice_id, reason, issue_date,
	customer_id, customer_name, billing_address, shipping_address,
	subtotal, discount_percent, discount_amount, vat_amount, total,
	created_by, created_at`

func scanCreditNote(row rowScanner) (*CreditNote, error) {
	var cn CreditNote
	err := row.Scan(
		&cn.ID, &cn.CompanyID, &cn.Number, &cn.InvoiceID, &cn.Reason, &cn.IssueDate,
		&cn.CustomerID, &cn.CustomerName, &cn.BillingAddress, &cn.ShippingAddress,
		&cn.Subtotal, &cn.DiscountPercent, &cn.DiscountAmount, &cn.VATAmount, &cn.Total,
		&cn.CreatedBy, &cn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cn, nil
}

func (s *creditNoteService) CreateFromInvoice(ctx context.Context, actor Actor, invoiceID int, in CreditNoteInput) (*CreditNote, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	for i, item := range in.Items {
		if !item.DiscountPercent.IsZero() {
			return nil, newValidationError(fmt.Sprintf("items[%d].discount_percent", i), "credit note lines take no discount")
		}
	}
	lines, totals, err := ComputeTotals(in.Items, decimal.Zero)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, err := lockInvoiceTx(ctx, tx, actor, invoiceID)
	if err != nil {
		return nil, err
	}

	_, number, err := s.seq.AllocateNumberTx(ctx, tx, actor.CompanyID, KindCreditNote)
	if err != nil {
		return nil, err
	}

	var creditNoteID int
	err = tx.QueryRow(ctx, `
		INSERT INTO credit_notes (company_id, number, invoice_id, reason, issue_date,
		                          customer_id, customer_name, billing_address, shipping_address,
		                          subtotal, discount_percent, discount_amount, vat_amount, total, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, actor.CompanyID, number, inv.ID, in.Reason, orToday(in.IssueDate, s.now),
		inv.CustomerID, inv.CustomerName, inv.BillingAddress, inv.ShippingAddress,
		totals.Subtotal, totals.DiscountPercent, totals.DiscountAmount, totals.VATAmount, totals.Total,
		actor.UserID,
	).Scan(&creditNoteID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Entity: "credit note", Key: number}
		}
		return nil, fmt.Errorf("failed to insert credit note: %w", err)
	}

	if err := insertLinesTx(ctx, tx, KindCreditNote, creditNoteID, lines); err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		UserID:     actor.UserID,
		Action:     "create",
		EntityType: string(KindCreditNote),
		EntityID:   creditNoteID,
		NewValue:   map[string]any{"number": number, "invoice_id": inv.ID, "reason": in.Reason, "total": totals.Total},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit credit note creation: %w", err)
	}
	return s.GetCreditNote(ctx, actor, creditNoteID)
}

func (s *creditNoteService) GetCreditNote(ctx context.Context, actor Actor, creditNoteID int) (*CreditNote, error) {
	cn, err := scanCreditNote(s.pool.QueryRow(ctx,
		"SELECT "+creditNoteColumns+" FROM credit_notes WHERE id = $1 AND company_id = $2",
		creditNoteID, actor.CompanyID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "credit note", ID: creditNoteID}
		}
		return nil, fmt.Errorf("failed to fetch credit note %d: %w", creditNoteID, err)
	}
	cn.Items, err = fetchLines(ctx, s.pool, KindCreditNote, cn.ID)
	if err != nil {
		return nil, err
	}
	return cn, nil
}

func (s *creditNoteService) ListCreditNotes(ctx context.Context, actor Actor, invoiceID *int) ([]CreditNote, error) {
	query := "SELECT " + creditNoteColumns + " FROM credit_notes WHERE company_id = $1"
	args := []any{actor.CompanyID}
	if invoiceID != nil {
		query += " AND invoice_id = $2"
		args = append(args, *invoiceID)
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit notes: %w", err)
	}
	defer rows.Close()

	notes := []CreditNote{}
	for rows.Next() {
		cn, err := scanCreditNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit note: %w", err)
		}
		notes = append(notes, *cn)
	}
	return notes, rows.Err()
}
