package web

import (
	"time"

	"github.com/shopspring/decimal"

	"erp-sales/internal/app"
	"erp-sales/internal/core"
)

// money renders an amount rounded to two decimals, as a JSON string.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + decimal.Decimal(m).StringFixed(2) + `"`), nil
}

// date renders a calendar date as YYYY-MM-DD.
type date time.Time

func (d date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format("2006-01-02") + `"`), nil
}

func optionalDate(t *time.Time) *date {
	if t == nil {
		return nil
	}
	d := date(*t)
	return &d
}

type lineJSON struct {
	Position        int              `json:"position"`
	Description     string           `json:"description"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Unit            string           `json:"unit"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	VATCategory     core.VATCategory `json:"vat_category"`
	LineTotal       money            `json:"line_total"`
	VATAmount       money            `json:"vat_amount"`
}

func toLines(items []core.LineItem) []lineJSON {
	out := make([]lineJSON, len(items))
	for i, l := range items {
		out[i] = lineJSON{
			Position:        l.Position,
			Description:     l.Description,
			Quantity:        l.Quantity,
			Unit:            l.Unit,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			VATCategory:     l.VATCategory,
			LineTotal:       money(l.LineTotal),
			VATAmount:       money(l.VATAmount),
		}
	}
	return out
}

type totalsJSON struct {
	Subtotal        money           `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  money           `json:"discount_amount"`
	VATAmount       money           `json:"vat_amount"`
	Total           money           `json:"total"`
}

func toTotals(t core.Totals) totalsJSON {
	return totalsJSON{
		Subtotal:        money(t.Subtotal),
		DiscountPercent: t.DiscountPercent,
		DiscountAmount:  money(t.DiscountAmount),
		VATAmount:       money(t.VATAmount),
		Total:           money(t.Total),
	}
}

type quoteJSON struct {
	ID         int    `json:"id"`
	Number     string `json:"number"`
	Status     string `json:"status"`
	IssueDate  date   `json:"issue_date"`
	ValidUntil *date  `json:"valid_until,omitempty"`
	Notes      string `json:"notes"`
	core.Party
	totalsJSON
	Items     []lineJSON `json:"items"`
	CreatedBy int        `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toQuote(q *core.Quote) quoteJSON {
	return quoteJSON{
		ID:         q.ID,
		Number:     q.Number,
		Status:     string(q.Status),
		IssueDate:  date(q.IssueDate),
		ValidUntil: optionalDate(q.ValidUntil),
		Notes:      q.Notes,
		Party:      q.Party,
		totalsJSON: toTotals(q.Totals),
		Items:      toLines(q.Items),
		CreatedBy:  q.CreatedBy,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  q.UpdatedAt,
	}
}

func toQuotes(qs []core.Quote) []quoteJSON {
	out := make([]quoteJSON, len(qs))
	for i := range qs {
		out[i] = toQuote(&qs[i])
	}
	return out
}

type orderJSON struct {
	ID        int    `json:"id"`
	Number    string `json:"number"`
	QuoteID   *int   `json:"quote_id,omitempty"`
	Status    string `json:"status"`
	OrderDate date   `json:"order_date"`
	Notes     string `json:"notes"`
	core.Party
	totalsJSON
	Items     []lineJSON `json:"items"`
	CreatedBy int        `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toOrder(o *core.Order) orderJSON {
	return orderJSON{
		ID:         o.ID,
		Number:     o.Number,
		QuoteID:    o.QuoteID,
		Status:     string(o.Status),
		OrderDate:  date(o.OrderDate),
		Notes:      o.Notes,
		Party:      o.Party,
		totalsJSON: toTotals(o.Totals),
		Items:      toLines(o.Items),
		CreatedBy:  o.CreatedBy,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func toOrders(orders []core.Order) []orderJSON {
	out := make([]orderJSON, len(orders))
	for i := range orders {
		out[i] = toOrder(&orders[i])
	}
	return out
}

type invoiceJSON struct {
	ID         int    `json:"id"`
	Number     string `json:"number"`
	OrderID    *int   `json:"order_id,omitempty"`
	Status     string `json:"status"`
	IssueDate  date   `json:"issue_date"`
	DueDate    date   `json:"due_date"`
	PaidAmount money  `json:"paid_amount"`
	OpenAmount money  `json:"open_amount"`
	Notes      string `json:"notes"`
	core.Party
	totalsJSON
	Items     []lineJSON `json:"items,omitempty"`
	CreatedBy int        `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toInvoice(inv *core.Invoice) invoiceJSON {
	return invoiceJSON{
		ID:         inv.ID,
		Number:     inv.Number,
		OrderID:    inv.OrderID,
		Status:     string(inv.Status),
		IssueDate:  date(inv.IssueDate),
		DueDate:    date(inv.DueDate),
		PaidAmount: money(inv.PaidAmount),
		OpenAmount: money(inv.OpenAmount()),
		Notes:      inv.Notes,
		Party:      inv.Party,
		totalsJSON: toTotals(inv.Totals),
		Items:      toLines(inv.Items),
		CreatedBy:  inv.CreatedBy,
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
	}
}

func toInvoices(invs []core.Invoice) []invoiceJSON {
	out := make([]invoiceJSON, len(invs))
	for i := range invs {
		out[i] = toInvoice(&invs[i])
	}
	return out
}

type creditNoteJSON struct {
	ID        int    `json:"id"`
	Number    string `json:"number"`
	InvoiceID int    `json:"invoice_id"`
	Reason    string `json:"reason"`
	IssueDate date   `json:"issue_date"`
	core.Party
	totalsJSON
	Items     []lineJSON `json:"items"`
	CreatedBy int        `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

func toCreditNote(cn *core.CreditNote) creditNoteJSON {
	return creditNoteJSON{
		ID:         cn.ID,
		Number:     cn.Number,
		InvoiceID:  cn.InvoiceID,
		Reason:     cn.Reason,
		IssueDate:  date(cn.IssueDate),
		Party:      cn.Party,
		totalsJSON: toTotals(cn.Totals),
		Items:      toLines(cn.Items),
		CreatedBy:  cn.CreatedBy,
		CreatedAt:  cn.CreatedAt,
	}
}

func toCreditNotes(cns []core.CreditNote) []creditNoteJSON {
	out := make([]creditNoteJSON, len(cns))
	for i := range cns {
		out[i] = toCreditNote(&cns[i])
	}
	return out
}

type paymentJSON struct {
	ID        int       `json:"id"`
	InvoiceID int       `json:"invoice_id"`
	Amount    money     `json:"amount"`
	Method    string    `json:"method"`
	PaidOn    date      `json:"paid_on"`
	Reference *string   `json:"reference,omitempty"`
	CreatedBy int       `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func toPayment(p *core.Payment) paymentJSON {
	return paymentJSON{
		ID:        p.ID,
		InvoiceID: p.InvoiceID,
		Amount:    money(p.Amount),
		Method:    p.Method,
		PaidOn:    date(p.PaidOn),
		Reference: p.Reference,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	}
}

func toPayments(ps []core.Payment) []paymentJSON {
	out := make([]paymentJSON, len(ps))
	for i := range ps {
		out[i] = toPayment(&ps[i])
	}
	return out
}

type reminderJSON struct {
	ID        int       `json:"id"`
	InvoiceID int       `json:"invoice_id"`
	Level     string    `json:"level"`
	Fee       money     `json:"fee"`
	SentAt    time.Time `json:"sent_at"`
	DueDate   date      `json:"due_date"`
	CreatedBy int       `json:"created_by"`
}

func toReminder(r *core.Reminder) reminderJSON {
	return reminderJSON{
		ID:        r.ID,
		InvoiceID: r.InvoiceID,
		Level:     string(r.Level),
		Fee:       money(r.Fee),
		SentAt:    r.SentAt,
		DueDate:   date(r.DueDate),
		CreatedBy: r.CreatedBy,
	}
}

func toReminders(rs []core.Reminder) []reminderJSON {
	out := make([]reminderJSON, len(rs))
	for i := range rs {
		out[i] = toReminder(&rs[i])
	}
	return out
}

type totalsResponse struct {
	Items []lineJSON `json:"items"`
	totalsJSON
}

func toTotalsResponse(res *app.TotalsResult) totalsResponse {
	return totalsResponse{Items: toLines(res.Items), totalsJSON: toTotals(res.Totals)}
}

type paymentResponse struct {
	Payment paymentJSON `json:"payment"`
	Invoice invoiceJSON `json:"invoice"`
}

type reminderResponse struct {
	Reminder reminderJSON `json:"reminder"`
	Invoice  invoiceJSON  `json:"invoice"`
}

type invoiceStatusResponse struct {
	invoiceJSON
	PreviousStatus string `json:"previous_status"`
	Override       bool   `json:"override"`
}

type sweepResponse struct {
	AsOf     date          `json:"as_of"`
	Count    int           `json:"count"`
	Invoices []invoiceJSON `json:"invoices"`
}
