package app

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"erp-sales/internal/core"
)

// Dates on the wire are calendar dates. Full RFC 3339 timestamps are accepted
// as well and truncated to their date.
const dateLayout = "2006-01-02"

// LineItemRequest is one requested line item.
type LineItemRequest struct {
	Description     string          `json:"description" jsonschema:"required,maxLength=500"`
	Quantity        decimal.Decimal `json:"quantity" jsonschema:"required,description=Quantity greater than zero"`
	Unit            string          `json:"unit,omitempty" jsonschema:"maxLength=20"`
	UnitPrice       decimal.Decimal `json:"unit_price" jsonschema:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent,omitempty" jsonschema:"description=Line discount between 0 and 100"`
	VATCategory     string          `json:"vat_category" jsonschema:"required,enum=STANDARD,enum=REDUCED,enum=SPECIAL,enum=EXEMPT"`
}

// PartyRequest is the customer block of a quote or order.
type PartyRequest struct {
	CustomerID      *int   `json:"customer_id,omitempty"`
	CustomerName    string `json:"customer_name,omitempty"`
	BillingAddress  string `json:"billing_address,omitempty"`
	ShippingAddress string `json:"shipping_address,omitempty"`
}

// CreateQuoteRequest is the input for creating a DRAFT quote.
type CreateQuoteRequest struct {
	PartyRequest
	IssueDate       string            `json:"issue_date,omitempty" jsonschema:"format=date"`
	ValidUntil      string            `json:"valid_until,omitempty" jsonschema:"format=date"`
	Notes           string            `json:"notes,omitempty"`
	DiscountPercent decimal.Decimal   `json:"discount_percent,omitempty"`
	Items           []LineItemRequest `json:"items"`
}

// CreateOrderRequest is the input for creating a DRAFT order without a quote.
type CreateOrderRequest struct {
	PartyRequest
	OrderDate       string            `json:"order_date,omitempty" jsonschema:"format=date"`
	Notes           string            `json:"notes,omitempty"`
	DiscountPercent decimal.Decimal   `json:"discount_percent,omitempty"`
	Items           []LineItemRequest `json:"items" jsonschema:"required,minItems=1"`
}

// CreateInvoiceRequest carries the optional header fields of an invoice built
// from an order.
type CreateInvoiceRequest struct {
	IssueDate string `json:"issue_date,omitempty" jsonschema:"format=date"`
	DueDate   string `json:"due_date,omitempty" jsonschema:"format=date"`
	Notes     string `json:"notes,omitempty"`
}

// CreateCreditNoteRequest credits an invoice.
type CreateCreditNoteRequest struct {
	Reason    string            `json:"reason" jsonschema:"required"`
	IssueDate string            `json:"issue_date,omitempty" jsonschema:"format=date"`
	Items     []LineItemRequest `json:"items" jsonschema:"required,minItems=1"`
}

// RecordPaymentRequest is one payment against an invoice.
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" jsonschema:"required"`
	Method    string          `json:"method" jsonschema:"required,example=bank_transfer"`
	PaidOn    string          `json:"paid_on,omitempty" jsonschema:"format=date"`
	Reference *string         `json:"reference,omitempty"`
}

// ComputeTotalsRequest previews the totals of a set of lines.
type ComputeTotalsRequest struct {
	DiscountPercent decimal.Decimal   `json:"discount_percent,omitempty"`
	Items           []LineItemRequest `json:"items"`
}

// SetStatusRequest moves an order or invoice to a named status.
type SetStatusRequest struct {
	Status string `json:"status" jsonschema:"required"`
}

func (p PartyRequest) toParty() core.Party {
	return core.Party{
		CustomerID:      p.CustomerID,
		CustomerName:    strings.TrimSpace(p.CustomerName),
		BillingAddress:  p.BillingAddress,
		ShippingAddress: p.ShippingAddress,
	}
}

func toLineInputs(items []LineItemRequest) []core.LineItemInput {
	out := make([]core.LineItemInput, len(items))
	for i, it := range items {
		out[i] = core.LineItemInput{
			Description:     strings.TrimSpace(it.Description),
			Quantity:        it.Quantity,
			Unit:            it.Unit,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			VATCategory:     core.VATCategory(strings.ToUpper(strings.TrimSpace(it.VATCategory))),
		}
	}
	return out
}

func (r CreateQuoteRequest) toInput() (core.QuoteInput, error) {
	issue, err := parseDate("issue_date", r.IssueDate)
	if err != nil {
		return core.QuoteInput{}, err
	}
	validUntil, err := parseOptionalDate("valid_until", r.ValidUntil)
	if err != nil {
		return core.QuoteInput{}, err
	}
	if validUntil != nil && !issue.IsZero() && validUntil.Before(issue) {
		return core.QuoteInput{}, fieldError("valid_until", "must not be before the issue date")
	}
	return core.QuoteInput{
		Party:           r.toParty(),
		IssueDate:       issue,
		ValidUntil:      validUntil,
		Notes:           r.Notes,
		DiscountPercent: r.DiscountPercent,
		Items:           toLineInputs(r.Items),
	}, nil
}

func (r CreateOrderRequest) toInput() (core.OrderInput, error) {
	orderDate, err := parseDate("order_date", r.OrderDate)
	if err != nil {
		return core.OrderInput{}, err
	}
	return core.OrderInput{
		Party:           r.toParty(),
		OrderDate:       orderDate,
		Notes:           r.Notes,
		DiscountPercent: r.DiscountPercent,
		Items:           toLineInputs(r.Items),
	}, nil
}

func (r CreateInvoiceRequest) toInput() (core.InvoiceFromOrderInput, error) {
	issue, err := parseDate("issue_date", r.IssueDate)
	if err != nil {
		return core.InvoiceFromOrderInput{}, err
	}
	due, err := parseOptionalDate("due_date", r.DueDate)
	if err != nil {
		return core.InvoiceFromOrderInput{}, err
	}
	return core.InvoiceFromOrderInput{IssueDate: issue, DueDate: due, Notes: r.Notes}, nil
}

func (r CreateCreditNoteRequest) toInput() (core.CreditNoteInput, error) {
	issue, err := parseDate("issue_date", r.IssueDate)
	if err != nil {
		return core.CreditNoteInput{}, err
	}
	return core.CreditNoteInput{
		Reason:    strings.TrimSpace(r.Reason),
		IssueDate: issue,
		Items:     toLineInputs(r.Items),
	}, nil
}

func (r RecordPaymentRequest) toInput() (core.PaymentInput, error) {
	paidOn, err := parseDate("paid_on", r.PaidOn)
	if err != nil {
		return core.PaymentInput{}, err
	}
	return core.PaymentInput{
		Amount:    r.Amount,
		Method:    strings.TrimSpace(r.Method),
		PaidOn:    paidOn,
		Reference: r.Reference,
	}, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty yields the zero time,
// which the services read as today.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fieldError(field, "must be a date in YYYY-MM-DD format")
}

func parseOptionalDate(field, raw string) (*time.Time, error) {
	t, err := parseDate(field, raw)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

func fieldError(field, message string) *core.ValidationError {
	return &core.ValidationError{Fields: []core.FieldError{{Field: field, Message: message}}}
}

func normalizeStatus(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// parseStatusFilter returns nil for an empty filter.
func parseStatusFilter(machine *core.StateMachine, raw string) (*core.Status, error) {
	raw = normalizeStatus(raw)
	if raw == "" {
		return nil, nil
	}
	s, err := machine.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
