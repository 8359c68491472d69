package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind identifies one of the four numbered sales documents.
type DocumentKind string

const (
	KindQuote      DocumentKind = "QUOTE"
	KindOrder      DocumentKind = "ORDER"
	KindInvoice    DocumentKind = "INVOICE"
	KindCreditNote DocumentKind = "CREDIT_NOTE"
)

// Prefix returns the fixed document-number prefix for the kind.
func (k DocumentKind) Prefix() string {
	switch k {
	case KindQuote:
		return "AN"
	case KindOrder:
		return "AU"
	case KindInvoice:
		return "RE"
	case KindCreditNote:
		return "GS"
	}
	return ""
}

// Valid reports whether k is one of the four known kinds.
func (k DocumentKind) Valid() bool {
	return k.Prefix() != ""
}

// Status is the lifecycle status of a quote, order or invoice.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusConfirmed Status = "CONFIRMED"
	StatusPartial   Status = "PARTIAL"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// VATCategory selects one of the fixed Swiss VAT rates.
type VATCategory string

const (
	VATStandard VATCategory = "STANDARD"
	VATReduced  VATCategory = "REDUCED"
	VATSpecial  VATCategory = "SPECIAL"
	VATExempt   VATCategory = "EXEMPT"
)

// ReminderLevel is the dunning escalation step.
type ReminderLevel string

const (
	ReminderFirst  ReminderLevel = "FIRST"
	ReminderSecond ReminderLevel = "SECOND"
	ReminderThird  ReminderLevel = "THIRD"
)

// Actor is the authenticated caller. Every operation is scoped by CompanyID.
type Actor struct {
	CompanyID int
	UserID    int
}

// Company owns every document and its four independent number counters.
type Company struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	Currency          string    `json:"currency"`
	QuoteCounter      int64     `json:"quote_counter"`
	OrderCounter      int64     `json:"order_counter"`
	InvoiceCounter    int64     `json:"invoice_counter"`
	CreditNoteCounter int64     `json:"credit_note_counter"`
	CreatedAt         time.Time `json:"created_at"`
}

// LineItem is one priced position on a document.
type LineItem struct {
	Position        int             `json:"position"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	VATCategory     VATCategory     `json:"vat_category"`
	LineTotal       decimal.Decimal `json:"line_total"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
}

// Totals are the computed monetary figures of a document header.
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	Total           decimal.Decimal `json:"total"`
}

// Rounded returns a copy with every amount rounded to two decimals.
// Amounts are kept unrounded until output.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:        t.Subtotal.Round(2),
		DiscountPercent: t.DiscountPercent,
		DiscountAmount:  t.DiscountAmount.Round(2),
		VATAmount:       t.VATAmount.Round(2),
		Total:           t.Total.Round(2),
	}
}

// Party is the customer block copied between documents.
type Party struct {
	CustomerID      *int   `json:"customer_id,omitempty"`
	CustomerName    string `json:"customer_name"`
	BillingAddress  string `json:"billing_address"`
	ShippingAddress string `json:"shipping_address"`
}

// Quote (Angebot) is the first document of the sales flow.
//
//	DRAFT → SENT → CONFIRMED
//	DRAFT/SENT → CANCELLED
type Quote struct {
	ID         int        `json:"id"`
	CompanyID  int        `json:"company_id"`
	Number     string     `json:"number"`
	Status     Status     `json:"status"`
	IssueDate  time.Time  `json:"issue_date"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	Notes      string     `json:"notes"`
	Party
	Totals
	Items     []LineItem `json:"items"`
	CreatedBy int        `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Order (Auftrag) is created directly or converted from a confirmed quote.
type Order struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"company_id"`
	Number    string    `json:"number"`
	QuoteID   *int      `json:"quote_id,omitempty"`
	Status    Status    `json:"status"`
	OrderDate time.Time `json:"order_date"`
	Notes     string    `json:"notes"`
	Party
	Totals
	Items     []LineItem `json:"items"`
	CreatedBy int        `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Invoice (Rechnung) is created from an order and settled by payments.
type Invoice struct {
	ID         int             `json:"id"`
	CompanyID  int             `json:"company_id"`
	Number     string          `json:"number"`
	OrderID    *int            `json:"order_id,omitempty"`
	Status     Status          `json:"status"`
	IssueDate  time.Time       `json:"issue_date"`
	DueDate    time.Time       `json:"due_date"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Notes      string          `json:"notes"`
	Party
	Totals
	Items     []LineItem `json:"items"`
	CreatedBy int        `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// OpenAmount is total minus paid amount. It goes negative on overpayment.
func (i *Invoice) OpenAmount() decimal.Decimal {
	return i.Total.Sub(i.PaidAmount)
}

// Payment is an immutable receipt against one invoice.
type Payment struct {
	ID        int             `json:"id"`
	CompanyID int             `json:"company_id"`
	InvoiceID int             `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	PaidOn    time.Time       `json:"paid_on"`
	Reference *string         `json:"reference,omitempty"`
	CreatedBy int             `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// Reminder (Mahnung) is one dunning step for an invoice.
type Reminder struct {
	ID        int             `json:"id"`
	CompanyID int             `json:"company_id"`
	InvoiceID int             `json:"invoice_id"`
	Level     ReminderLevel   `json:"level"`
	Fee       decimal.Decimal `json:"fee"`
	SentAt    time.Time       `json:"sent_at"`
	DueDate   time.Time       `json:"due_date"`
	CreatedBy int             `json:"created_by"`
}

// CreditNote (Gutschrift) credits part or all of an invoice.
type CreditNote struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"company_id"`
	Number    string    `json:"number"`
	InvoiceID int       `json:"invoice_id"`
	Reason    string    `json:"reason"`
	IssueDate time.Time `json:"issue_date"`
	Party
	Totals
	Items     []LineItem `json:"items"`
	CreatedBy int        `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// AuditEntry is one record written to the audit log.
type AuditEntry struct {
	UserID     int
	Action     string
	EntityType string
	EntityID   int
	OldValue   any
	NewValue   any
}
