package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultPaymentTermsDays is used when no payment terms are configured.
const DefaultPaymentTermsDays = 30

// InvoiceService builds invoices from orders and manages their status outside
// of payments and dunning.
type InvoiceService interface {
	// CreateFromOrder copies an order into a new DRAFT invoice. Any order
	// status is accepted.
	CreateFromOrder(ctx context.Context, actor Actor, orderID int, in InvoiceFromOrderInput) (*Invoice, error)
	GetInvoice(ctx context.Context, actor Actor, invoiceID int) (*Invoice, error)
	ListInvoices(ctx context.Context, actor Actor, status *Status) ([]Invoice, error)
	// SetInvoiceStatus is an administrative override: any status of the
	// invoice enum is accepted. The returned StatusChange tells whether the
	// move followed InvoiceLifecycle.
	SetInvoiceStatus(ctx context.Context, actor Actor, invoiceID int, status Status) (*Invoice, *StatusChange, error)
}

// StatusChange describes one applied status update.
type StatusChange struct {
	From    Status
	To      Status
	Natural bool
}

type invoiceService struct {
	pool             *pgxpool.Pool
	seq              SequenceAllocator
	audit            AuditLog
	now              func() time.Time
	paymentTermsDays int
}

func NewInvoiceService(pool *pgxpool.Pool, seq SequenceAllocator, audit AuditLog, now func() time.Time, paymentTermsDays int) InvoiceService {
	if now == nil {
		now = time.Now
	}
	if paymentTermsDays <= 0 {
		paymentTermsDays = DefaultPaymentTermsDays
	}
	return &invoiceService{pool: pool, seq: seq, audit: audit, now: now, paymentTermsDays: paymentTermsDays}
}

const invoiceColumns = `
	id, company_id, number, order_id, status, issue_date, due_date, paid_amount, notes,
	customer_id, customer_name, billing_address, shipping_address,
	subtotal, discount_percent, discount_amount, vat_amount, total,
	created_by, created_at, updated_at`

func scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.Number, &inv.OrderID, &inv.Status, &inv.IssueDate, &inv.DueDate,
		&inv.PaidAmount, &inv.Notes,
		&inv.CustomerID, &inv.CustomerName, &inv.BillingAddress, &inv.ShippingAddress,
		&inv.Subtotal, &inv.DiscountPercent, &inv.DiscountAmount, &inv.VATAmount, &inv.Total,
		&inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *invoiceService) CreateFromOrder(ctx context.Context, actor Actor, orderID int, in InvoiceFromOrderInput) (*Invoice, error) {
	issueDate := orToday(in.IssueDate, s.now)
	dueDate := issueDate.AddDate(0, 0, s.paymentTermsDays)
	if in.DueDate != nil {
		dueDate = dateOnly(*in.DueDate)
		if dueDate.Before(issueDate) {
			return nil, newValidationError("due_date", "must not be before the issue date")
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockDocumentTx(ctx, tx, "orders", KindOrder, actor, orderID); err != nil {
		return nil, err
	}
	order, err := getOrder(ctx, tx, actor, orderID)
	if err != nil {
		return nil, err
	}

	_, number, err := s.seq.AllocateNumberTx(ctx, tx, actor.CompanyID, KindInvoice)
	if err != nil {
		return nil, err
	}

	notes := in.Notes
	if notes == "" {
		notes = order.Notes
	}

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (company_id, number, order_id, status, issue_date, due_date, paid_amount, notes,
		                      customer_id, customer_name, billing_address, shipping_address,
		                      subtotal, discount_percent, discount_amount, vat_amount, total, created_by)
		VALUES ($1, $2, $3, 'DRAFT', $4, $5, 0, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`, actor.CompanyID, number, order.ID, issueDate, dueDate, notes,
		order.CustomerID, order.CustomerName, order.BillingAddress, order.ShippingAddress,
		order.Subtotal, order.DiscountPercent, order.DiscountAmount, order.VATAmount, order.Total,
		actor.UserID,
	).Scan(&invoiceID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Entity: "invoice", Key: number}
		}
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	if err := insertLinesTx(ctx, tx, KindInvoice, invoiceID, order.Items); err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		UserID:     actor.UserID,
		Action:     "create",
		EntityType: string(KindInvoice),
		EntityID:   invoiceID,
		NewValue:   map[string]any{"number": number, "order_id": order.ID, "total": order.Total},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice creation: %w", err)
	}
	return s.GetInvoice(ctx, actor, invoiceID)
}

func (s *invoiceService) GetInvoice(ctx context.Context, actor Actor, invoiceID int) (*Invoice, error) {
	return getInvoice(ctx, s.pool, actor, invoiceID)
}

func getInvoice(ctx context.Context, q pgxQuerier, actor Actor, invoiceID int) (*Invoice, error) {
	inv, err := getInvoiceHeader(ctx, q, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Items, err = fetchLines(ctx, q, KindInvoice, inv.ID)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func getInvoiceHeader(ctx context.Context, q pgxQuerier, actor Actor, invoiceID int) (*Invoice, error) {
	inv, err := scanInvoice(q.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1 AND company_id = $2",
		invoiceID, actor.CompanyID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "invoice", ID: invoiceID}
		}
		return nil, fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}
	return inv, nil
}

// lockInvoiceTx locks the invoice row and returns the header without lines.
func lockInvoiceTx(ctx context.Context, tx pgx.Tx, actor Actor, invoiceID int) (*Invoice, error) {
	inv, err := scanInvoice(tx.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1 AND company_id = $2 FOR UPDATE",
		invoiceID, actor.CompanyID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "invoice", ID: invoiceID}
		}
		return nil, fmt.Errorf("failed to lock invoice %d: %w", invoiceID, err)
	}
	return inv, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, actor Actor, status *Status) ([]Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices WHERE company_id = $1"
	args := []any{actor.CompanyID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, string(*status))
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	invoices := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (s *invoiceService) SetInvoiceStatus(ctx context.Context, actor Actor, invoiceID int, status Status) (*Invoice, *StatusChange, error) {
	if !InvoiceLifecycle.Known(status) {
		return nil, nil, newValidationError("status", fmt.Sprintf("%q is not a valid invoice status", status))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockDocumentTx(ctx, tx, "invoices", KindInvoice, actor, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	change := &StatusChange{From: cur.Status, To: status, Natural: true}
	if cur.Status != status {
		action := "set_status"
		if _, ok := InvoiceLifecycle.EventTo(cur.Status, status); !ok {
			change.Natural = false
			action = "override_status"
		}
		if err := setStatusTx(ctx, tx, s.audit, "invoices", KindInvoice, actor, invoiceID, cur.Status, status, action); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit invoice status change: %w", err)
	}
	inv, err := s.GetInvoice(ctx, actor, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	return inv, change, nil
}
