package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemInput is one requested line. Positions are assigned from input order.
type LineItemInput struct {
	Description     string          `json:"description" validate:"required,max=500"`
	Quantity        decimal.Decimal `json:"quantity" validate:"gt=0"`
	Unit            string          `json:"unit" validate:"max=20"`
	UnitPrice       decimal.Decimal `json:"unit_price" validate:"gte=0"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"gte=0,lte=100"`
	VATCategory     VATCategory     `json:"vat_category" validate:"required,oneof=STANDARD REDUCED SPECIAL EXEMPT"`
}

// QuoteInput creates a DRAFT quote. An empty Items list yields an empty draft.
type QuoteInput struct {
	Party
	IssueDate       time.Time
	ValidUntil      *time.Time
	Notes           string
	DiscountPercent decimal.Decimal `validate:"gte=0,lte=100"`
	Items           []LineItemInput `validate:"dive"`
}

// OrderInput creates a DRAFT order from scratch.
type OrderInput struct {
	Party
	OrderDate       time.Time
	Notes           string
	DiscountPercent decimal.Decimal `validate:"gte=0,lte=100"`
	Items           []LineItemInput `validate:"required,min=1,dive"`
}

// InvoiceFromOrderInput carries the optional invoice header fields.
// A zero IssueDate means today; a nil DueDate means IssueDate plus payment terms.
type InvoiceFromOrderInput struct {
	IssueDate time.Time
	DueDate   *time.Time
	Notes     string
}

// CreditNoteInput credits an invoice with its own lines.
type CreditNoteInput struct {
	Reason    string `validate:"required,max=1000"`
	IssueDate time.Time
	Items     []LineItemInput `validate:"required,min=1,dive"`
}

// PaymentInput records one receipt. A zero PaidOn means today.
type PaymentInput struct {
	Amount    decimal.Decimal `validate:"gt=0"`
	Method    string          `validate:"required,max=50"`
	PaidOn    time.Time
	Reference *string `validate:"omitempty,max=200"`
}
