package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderService builds orders, directly or from a confirmed quote, and manages
// their status.
type OrderService interface {
	CreateOrder(ctx context.Context, actor Actor, in OrderInput) (*Order, error)
	// ConvertFromQuote copies a CONFIRMED quote into a new DRAFT order without
	// recomputing any amount.
	ConvertFromQuote(ctx context.Context, actor Actor, quoteID int) (*Order, error)
	GetOrder(ctx context.Context, actor Actor, orderID int) (*Order, error)
	ListOrders(ctx context.Context, actor Actor, status *Status) ([]Order, error)
	// SetOrderStatus moves the order to status if OrderLifecycle has a
	// transition leading there. Setting the current status is a no-op.
	SetOrderStatus(ctx context.Context, actor Actor, orderID int, status Status) (*Order, error)
}

type orderService struct {
	pool  *pgxpool.Pool
	seq   SequenceAllocator
	audit AuditLog
	now   func() time.Time
}

func NewOrderService(pool *pgxpool.Pool, seq SequenceAllocator, audit AuditLog, now func() time.Time) OrderService {
	if now == nil {
		now = time.Now
	}
	return &orderService{pool: pool, seq: seq, audit: audit, now: now}
}

const orderColumns = `
	id, company_id, number, quote_id, status, order_date, notes,
	customer_id, customer_name, billing_address, shipping_address,
	subtotal, discount_percent, discount_amount, vat_amount, total,
	created_by, created_at, updated_at`

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CompanyID, &o.Number, &o.QuoteID, &o.Status, &o.OrderDate, &o.Notes,
		&o.CustomerID, &o.CustomerName, &o.BillingAddress, &o.ShippingAddress,
		&o.Subtotal, &o.DiscountPercent, &o.DiscountAmount, &o.VATAmount, &o.Total,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// newOrder is the header of an order about to be inserted.
type newOrder struct {
	quoteID   *int
	orderDate time.Time
	notes     string
	party     Party
	totals    Totals
	lines     []LineItem
}

func (s *orderService) CreateOrder(ctx context.Context, actor Actor, in OrderInput) (*Order, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	lines, totals, err := ComputeTotals(in.Items, in.DiscountPercent)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderID, err := s.insertOrderTx(ctx, tx, actor, newOrder{
		orderDate: orToday(in.OrderDate, s.now),
		notes:     in.Notes,
		party:     in.Party,
		totals:    totals,
		lines:     lines,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}
	return s.GetOrder(ctx, actor, orderID)
}

func (s *orderService) ConvertFromQuote(ctx context.Context, actor Actor, quoteID int) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockDocumentTx(ctx, tx, "quotes", KindQuote, actor, quoteID)
	if err != nil {
		return nil, err
	}
	if cur.Status != StatusConfirmed {
		return nil, &InvalidStateError{Entity: "quote", ID: quoteID, Status: string(cur.Status), Op: "convert to order"}
	}

	quote, err := getQuote(ctx, tx, actor, quoteID)
	if err != nil {
		return nil, err
	}

	orderID, err := s.insertOrderTx(ctx, tx, actor, newOrder{
		quoteID:   &quote.ID,
		orderDate: dateOnly(s.now()),
		notes:     quote.Notes,
		party:     quote.Party,
		totals:    quote.Totals,
		lines:     quote.Items,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quote conversion: %w", err)
	}
	return s.GetOrder(ctx, actor, orderID)
}

func (s *orderService) insertOrderTx(ctx context.Context, tx pgx.Tx, actor Actor, o newOrder) (int, error) {
	_, number, err := s.seq.AllocateNumberTx(ctx, tx, actor.CompanyID, KindOrder)
	if err != nil {
		return 0, err
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (company_id, number, quote_id, status, order_date, notes,
		                    customer_id, customer_name, billing_address, shipping_address,
		                    subtotal, discount_percent, discount_amount, vat_amount, total, created_by)
		VALUES ($1, $2, $3, 'DRAFT', $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, actor.CompanyID, number, o.quoteID, o.orderDate, o.notes,
		o.party.CustomerID, o.party.CustomerName, o.party.BillingAddress, o.party.ShippingAddress,
		o.totals.Subtotal, o.totals.DiscountPercent, o.totals.DiscountAmount, o.totals.VATAmount, o.totals.Total,
		actor.UserID,
	).Scan(&orderID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &ConflictError{Entity: "order", Key: number}
		}
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	if err := insertLinesTx(ctx, tx, KindOrder, orderID, o.lines); err != nil {
		return 0, err
	}

	newValue := map[string]any{"number": number, "total": o.totals.Total}
	if o.quoteID != nil {
		newValue["quote_id"] = *o.quoteID
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		UserID:     actor.UserID,
		Action:     "create",
		EntityType: string(KindOrder),
		EntityID:   orderID,
		NewValue:   newValue,
	}); err != nil {
		return 0, err
	}
	return orderID, nil
}

func (s *orderService) GetOrder(ctx context.Context, actor Actor, orderID int) (*Order, error) {
	return getOrder(ctx, s.pool, actor, orderID)
}

func getOrder(ctx context.Context, q pgxQuerier, actor Actor, orderID int) (*Order, error) {
	order, err := scanOrder(q.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 AND company_id = $2",
		orderID, actor.CompanyID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	order.Items, err = fetchLines(ctx, q, KindOrder, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, actor Actor, status *Status) ([]Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE company_id = $1"
	args := []any{actor.CompanyID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, string(*status))
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *orderService) SetOrderStatus(ctx context.Context, actor Actor, orderID int, status Status) (*Order, error) {
	if !OrderLifecycle.Known(status) {
		return nil, newValidationError("status", fmt.Sprintf("%q is not a valid order status", status))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockDocumentTx(ctx, tx, "orders", KindOrder, actor, orderID)
	if err != nil {
		return nil, err
	}
	if cur.Status == status {
		return getOrder(ctx, tx, actor, orderID)
	}
	event, ok := OrderLifecycle.EventTo(cur.Status, status)
	if !ok {
		return nil, &InvalidStateError{Entity: "order", ID: orderID, Status: string(cur.Status), Op: "move to " + string(status)}
	}
	if err := setStatusTx(ctx, tx, s.audit, "orders", KindOrder, actor, orderID, cur.Status, status, string(event)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order status change: %w", err)
	}
	return s.GetOrder(ctx, actor, orderID)
}
