package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuoteService builds quotes and moves them through their lifecycle.
type QuoteService interface {
	CreateQuote(ctx context.Context, actor Actor, in QuoteInput) (*Quote, error)
	GetQuote(ctx context.Context, actor Actor, quoteID int) (*Quote, error)
	ListQuotes(ctx context.Context, actor Actor, status *Status) ([]Quote, error)

	// SendQuote transitions DRAFT → SENT.
	SendQuote(ctx context.Context, actor Actor, quoteID int) (*Quote, error)
	// ConfirmQuote transitions SENT → CONFIRMED.
	ConfirmQuote(ctx context.Context, actor Actor, quoteID int) (*Quote, error)
	// CancelQuote transitions DRAFT or SENT → CANCELLED.
	CancelQuote(ctx context.Context, actor Actor, quoteID int) (*Quote, error)
	// DeleteQuote hard-deletes a DRAFT quote and its lines. The audit log keeps
	// the deleted number.
	DeleteQuote(ctx context.Context, actor Actor, quoteID int) error
}

type quoteService struct {
	pool  *pgxpool.Pool
	seq   SequenceAllocator
	audit AuditLog
	now   func() time.Time
}

func NewQuoteService(pool *pgxpool.Pool, seq SequenceAllocator, audit AuditLog, now func() time.Time) QuoteService {
	if now == nil {
		now = time.Now
	}
	return &quoteService{pool: pool, seq: seq, audit: audit, now: now}
}

const quoteColumns = `
	id, company_id, number, status, issue_date, valid_until, notes,
	customer_id, customer_name, billing_address, shipping_address,
	subtotal, discount_percent, discount_amount, vat_amount, total,
	created_by, created_at, updated_at`

func scanQuote(row rowScanner) (*Quote, error) {
	var q Quote
	err := row.Scan(
		&q.ID, &q.CompanyID, &q.Number, &q.Status, &q.IssueDate, &q.ValidUntil, &q.Notes,
		&q.CustomerID, &q.CustomerName, &q.BillingAddress, &q.ShippingAddress,
		&q.Subtotal, &q.Totals.DiscountPercent, &q.DiscountAmount, &q.Totals.VATAmount, &q.Total,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *quoteService) CreateQuote(ctx context.Context, actor Actor, in QuoteInput) (*Quote, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	lines, totals, err := ComputeTotals(in.Items, in.DiscountPercent)
	if err != nil {
		return nil, err
	}
	issueDate := orToday(in.IssueDate, s.now)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, number, err := s.seq.AllocateNumberTx(ctx, tx, actor.CompanyID, KindQuote)
	if err != nil {
		return nil, err
	}

	var quoteID int
	err = tx.QueryRow(ctx, `
		INSERT INTO quotes (company_id, number, status, issue_date, valid_until, notes,
		                    customer_id, customer_name, billing_address, shipping_address,
		                    subtotal, discount_percent, discount_amount, vat_amount, total, created_by)
		VALUES ($1, $2, 'DRAFT', $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, actor.CompanyID, number, issueDate, in.ValidUntil, in.Notes,
		in.CustomerID, in.CustomerName, in.BillingAddress, in.ShippingAddress,
		totals.Subtotal, totals.DiscountPercent, totals.DiscountAmount, totals.VATAmount, totals.Total,
		actor.UserID,
	).Scan(&quoteID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Entity: "quote", Key: number}
		}
		return nil, fmt.Errorf("failed to insert quote: %w", err)
	}

	if err := insertLinesTx(ctx, tx, KindQuote, quoteID, lines); err != nil {
		return nil, err
	}

	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		UserID:     actor.UserID,
		Action:     "create",
		EntityType: string(KindQuote),
		EntityID:   quoteID,
		NewValue:   map[string]any{"number": number, "total": totals.Total},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quote creation: %w", err)
	}
	return s.GetQuote(ctx, actor, quoteID)
}

func (s *quoteService) GetQuote(ctx context.Context, actor Actor, quoteID int) (*Quote, error) {
	return getQuote(ctx, s.pool, actor, quoteID)
}

func getQuote(ctx context.Context, q pgxQuerier, actor Actor, quoteID int) (*Quote, error) {
	quote, err := scanQuote(q.QueryRow(ctx,
		"SELECT "+quoteColumns+" FROM quotes WHERE id = $1 AND company_id = $2",
		quoteID, actor.CompanyID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "quote", ID: quoteID}
		}
		return nil, fmt.Errorf("failed to fetch quote %d: %w", quoteID, err)
	}
	quote.Items, err = fetchLines(ctx, q, KindQuote, quote.ID)
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *quoteService) ListQuotes(ctx context.Context, actor Actor, status *Status) ([]Quote, error) {
	query := "SELECT " + quoteColumns + " FROM quotes WHERE company_id = $1"
	args := []any{actor.CompanyID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, string(*status))
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes := []Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

func (s *quoteService) SendQuote(ctx context.Context, actor Actor, quoteID int) (*Quote, error) {
	return s.transition(ctx, actor, quoteID, EventSend)
}

func (s *quoteService) ConfirmQuote(ctx context.Context, actor Actor, quoteID int) (*Quote, error) {
	return s.transition(ctx, actor, quoteID, EventConfirm)
}

func (s *quoteService) CancelQuote(ctx context.Context, actor Actor, quoteID int) (*Quote, error) {
	return s.transition(ctx, actor, quoteID, EventCancel)
}

func (s *quoteService) transition(ctx context.Context, actor Actor, quoteID int, event Event) (*Quote, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := transitionTx(ctx, tx, s.audit, QuoteLifecycle, "quotes", actor, quoteID, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quote %s: %w", event, err)
	}
	return s.GetQuote(ctx, actor, quoteID)
}

func (s *quoteService) DeleteQuote(ctx context.Context, actor Actor, quoteID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockDocumentTx(ctx, tx, "quotes", KindQuote, actor, quoteID)
	if err != nil {
		return err
	}
	if cur.Status != StatusDraft {
		return &InvalidStateError{Entity: "quote", ID: quoteID, Status: string(cur.Status), Op: "delete"}
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM line_items WHERE document_kind = $1 AND document_id = $2",
		string(KindQuote), quoteID,
	); err != nil {
		return fmt.Errorf("failed to delete quote %d lines: %w", quoteID, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM quotes WHERE id = $1", quoteID); err != nil {
		return fmt.Errorf("failed to delete quote %d: %w", quoteID, err)
	}

	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		UserID:     actor.UserID,
		Action:     "delete",
		EntityType: string(KindQuote),
		EntityID:   quoteID,
		OldValue:   map[string]any{"number": cur.Number, "status": cur.Status},
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit quote deletion: %w", err)
	}
	return nil
}
