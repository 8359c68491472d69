package app

import (
	"context"

	"erp-sales/internal/core"
)

// ApplicationService is the single interface the HTTP adapter and the CLI
// call. It turns boundary requests into core inputs and logs every state
// change. It holds no presentation logic.
type ApplicationService interface {
	// CreateCompany registers a company with all counters at zero.
	CreateCompany(ctx context.Context, name, currency string) (*core.Company, error)
	// GetCompany returns the actor's company with its counters.
	GetCompany(ctx context.Context, actor core.Actor) (*core.Company, error)

	// ComputeTotals prices lines without persisting anything.
	ComputeTotals(ctx context.Context, req ComputeTotalsRequest) (*TotalsResult, error)

	CreateQuote(ctx context.Context, actor core.Actor, req CreateQuoteRequest) (*core.Quote, error)
	GetQuote(ctx context.Context, actor core.Actor, quoteID int) (*core.Quote, error)
	// ListQuotes filters by status unless status is empty.
	ListQuotes(ctx context.Context, actor core.Actor, status string) ([]core.Quote, error)
	SendQuote(ctx context.Context, actor core.Actor, quoteID int) (*core.Quote, error)
	ConfirmQuote(ctx context.Context, actor core.Actor, quoteID int) (*core.Quote, error)
	CancelQuote(ctx context.Context, actor core.Actor, quoteID int) (*core.Quote, error)
	DeleteQuote(ctx context.Context, actor core.Actor, quoteID int) error
	// ConvertQuote creates a DRAFT order from a CONFIRMED quote.
	ConvertQuote(ctx context.Context, actor core.Actor, quoteID int) (*core.Order, error)

	CreateOrder(ctx context.Context, actor core.Actor, req CreateOrderRequest) (*core.Order, error)
	GetOrder(ctx context.Context, actor core.Actor, orderID int) (*core.Order, error)
	ListOrders(ctx context.Context, actor core.Actor, status string) ([]core.Order, error)
	SetOrderStatus(ctx context.Context, actor core.Actor, orderID int, status string) (*core.Order, error)

	// CreateInvoice builds a DRAFT invoice from an order.
	CreateInvoice(ctx context.Context, actor core.Actor, orderID int, req CreateInvoiceRequest) (*core.Invoice, error)
	GetInvoice(ctx context.Context, actor core.Actor, invoiceID int) (*core.Invoice, error)
	ListInvoices(ctx context.Context, actor core.Actor, status string) ([]core.Invoice, error)
	// SetInvoiceStatus is an administrative override; moves outside the
	// natural lifecycle are logged at warn.
	SetInvoiceStatus(ctx context.Context, actor core.Actor, invoiceID int, status string) (*InvoiceStatusResult, error)

	RecordPayment(ctx context.Context, actor core.Actor, invoiceID int, req RecordPaymentRequest) (*PaymentResult, error)
	ListPayments(ctx context.Context, actor core.Actor, invoiceID int) ([]core.Payment, error)

	// CreateReminder issues the next dunning level for an invoice.
	CreateReminder(ctx context.Context, actor core.Actor, invoiceID int) (*ReminderResult, error)
	ListReminders(ctx context.Context, actor core.Actor, invoiceID int) ([]core.Reminder, error)
	// SweepOverdue marks lapsed invoices OVERDUE. asOf is YYYY-MM-DD or empty
	// for today. Overlapping sweeps for one company fail with lock.ErrLocked.
	SweepOverdue(ctx context.Context, actor core.Actor, asOf string) (*SweepResult, error)

	CreateCreditNote(ctx context.Context, actor core.Actor, invoiceID int, req CreateCreditNoteRequest) (*core.CreditNote, error)
	GetCreditNote(ctx context.Context, actor core.Actor, creditNoteID int) (*core.CreditNote, error)
	// ListCreditNotes lists every credit note of the company, or those of one
	// invoice when invoiceID is set.
	ListCreditNotes(ctx context.Context, actor core.Actor, invoiceID *int) ([]core.CreditNote, error)
}
