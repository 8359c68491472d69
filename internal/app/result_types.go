package app

import (
	"time"

	"erp-sales/internal/core"
)

// TotalsResult is returned by ComputeTotals.
type TotalsResult struct {
	Items  []core.LineItem
	Totals core.Totals
}

// PaymentResult is returned by RecordPayment: the payment and the invoice as
// it stands afterwards.
type PaymentResult struct {
	Payment *core.Payment
	Invoice *core.Invoice
}

// ReminderResult is returned by CreateReminder.
type ReminderResult struct {
	Reminder *core.Reminder
	Invoice  *core.Invoice
}

// InvoiceStatusResult is returned by SetInvoiceStatus. Override is true when
// the change did not follow the natural invoice lifecycle.
type InvoiceStatusResult struct {
	Invoice  *core.Invoice
	From     core.Status
	Override bool
}

// SweepResult is returned by SweepOverdue.
type SweepResult struct {
	CompanyID int
	AsOf      time.Time
	Invoices  []core.Invoice
}
