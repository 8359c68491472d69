package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"erp-sales/internal/core"
	"erp-sales/internal/lock"
)

// overdueSweepLock names the company lock held while MarkOverdue runs.
const overdueSweepLock = "overdue-sweep"

// Services bundles the core services the application layer drives.
type Services struct {
	Companies   core.CompanyService
	Quotes      core.QuoteService
	Orders      core.OrderService
	Invoices    core.InvoiceService
	CreditNotes core.CreditNoteService
	Payments    core.PaymentLedger
	Dunning     core.DunningEngine
}

// NewServices wires every core service over one pool, sharing the sequence
// allocator and the audit log.
func NewServices(pool *pgxpool.Pool, now func() time.Time, paymentTermsDays int) Services {
	seq := core.NewSequenceAllocator(pool, now)
	audit := core.NewAuditLog()
	return Services{
		Companies:   core.NewCompanyService(pool),
		Quotes:      core.NewQuoteService(pool, seq, audit, now),
		Orders:      core.NewOrderService(pool, seq, audit, now),
		Invoices:    core.NewInvoiceService(pool, seq, audit, now, paymentTermsDays),
		CreditNotes: core.NewCreditNoteService(pool, seq, audit, now),
		Payments:    core.NewPaymentLedger(pool, audit, now),
		Dunning:     core.NewDunningEngine(pool, audit, now),
	}
}

type appService struct {
	svc    Services
	locker lock.Locker
	log    zerolog.Logger
	now    func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(svc Services, locker lock.Locker, log zerolog.Logger, now func() time.Time) ApplicationService {
	if locker == nil {
		locker = lock.Noop()
	}
	if now == nil {
		now = time.Now
	}
	return &appService{svc: svc, locker: locker, log: log, now: now}
}

func (s *appService) event(actor core.Actor) *zerolog.Event {
	return s.log.Info().Int("company_id", actor.CompanyID).Int("user_id", actor.UserID)
}

// ── Companies ────────────────────────────────────────────────────────────────

func (s *appService) CreateCompany(ctx context.Context, name, currency string) (*core.Company, error) {
	c, err := s.svc.Companies.CreateCompany(ctx, name, currency)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("company_id", c.ID).Str("name", c.Name).Msg("company created")
	return c, nil
}

func (s *appService) GetCompany(ctx context.Context, actor core.Actor) (*core.Company, error) {
	return s.svc.Companies.GetCompany(ctx, actor.CompanyID)
}

func (s *appService) ComputeTotals(_ context.Context, req ComputeTotalsRequest) (*TotalsResult, error) {
	lines, totals, err := core.PreviewTotals(core.TotalsInput{
		DiscountPercent: req.DiscountPercent,
		Items:           toLineInputs(req.Items),
	})
	if err != nil {
		return nil, err
	}
	return &TotalsResult{Items: lines, Totals: totals}, nil
}

// ── Quotes ───────────────────────────────────────────────────────────────────

func (s *appService) CreateQuote(ctx context.Context, actor core.Actor, req CreateQuoteRequest) (*core.Quote, error) {
	in, err := req.toInput()
	if err != nil {
		return nil, err
	}
	q, err := s.svc.Quotes.CreateQuote(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	s.event(actor).Str("number", q.Number).Str("total", q.Total.StringFixed(2)).Msg("quote created")
	return q, nil
}

func (s *appService) GetQuote(ctx context.Context, actor core.Actor, quoteID int) (*core.Quote, error) {
	return s.svc.Quotes.GetQuote(ctx, actor, quoteID)
}

func (s *appService) ListQuotes(ctx context.Context, actor core.Actor, status string) ([]core.Quote, error) {
	filter, err := parseStatusFilter(core.QuoteLifecycle, status)
	if err != nil {
		return nil, err
	}
	return s.svc.Quotes.ListQuotes(ctx, actor, filter)
}

func (s *appService) SendQuote(ctx context.Context, actor core.Actor, quoteID int) (*core.Quote, error) {
	return s.quoteTransition(actor, "sent")(s.svc.Quotes.SendQuote(ctx, actor, quoteID))
}

func (s *appService) ConfirmQuote(ctx context.Context, actor core.Actor, quoteID int) (*core.Quote, error) {
	return s.quoteTransition(actor, "confirmed")(s.svc.Quotes.ConfirmQuote(ctx, actor, quoteID))
}

func (s *appService) CancelQuote(ctx context.Context, actor core.Actor, quoteID int) (*core.Quote, error) {
	return s.quoteTransition(actor, "cancelled")(s.svc.Quotes.CancelQuote(ctx, actor, quoteID))
}

func (s *appService) quoteTransition(actor core.Actor, verb string) func(*core.Quote, error) (*core.Quote, error) {
	return func(q *core.Quote, err error) (*core.Quote, error) {
		if err != nil {
			return nil, err
		}
		s.event(actor).Str("number", q.Number).Str("status", string(q.Status)).Msg("quote " + verb)
		return q, nil
	}
}

func (s *appService) DeleteQuote(ctx context.Context, actor core.Actor, quoteID int) error {
	if err := s.svc.Quotes.DeleteQuote(ctx, actor, quoteID); err != nil {
		return err
	}
	s.event(actor).Int("quote_id", quoteID).Msg("draft quote deleted")
	return nil
}

func (s *appService) ConvertQuote(ctx context.Context, actor core.Actor, quoteID int) (*core.Order, error) {
	o, err := s.svc.Orders.ConvertFromQuote(ctx, actor, quoteID)
	if err != nil {
		return nil, err
	}
	s.event(actor).Int("quote_id", quoteID).Str("number", o.Number).Msg("quote converted to order")
	return o, nil
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (s *appService) CreateOrder(ctx context.Context, actor core.Actor, req CreateOrderRequest) (*core.Order, error) {
	in, err := req.toInput()
	if err != nil {
		return nil, err
	}
	o, err := s.svc.Orders.CreateOrder(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	s.event(actor).Str("number", o.Number).Str("total", o.Total.StringFixed(2)).Msg("order created")
	return o, nil
}

func (s *appService) GetOrder(ctx context.Context, actor core.Actor, orderID int) (*core.Order, error) {
	return s.svc.Orders.GetOrder(ctx, actor, orderID)
}

func (s *appService) ListOrders(ctx context.Context, actor core.Actor, status string) ([]core.Order, error) {
	filter, err := parseStatusFilter(core.OrderLifecycle, status)
	if err != nil {
		return nil, err
	}
	return s.svc.Orders.ListOrders(ctx, actor, filter)
}

func (s *appService) SetOrderStatus(ctx context.Context, actor core.Actor, orderID int, status string) (*core.Order, error) {
	target, err := core.OrderLifecycle.ParseStatus(normalizeStatus(status))
	if err != nil {
		return nil, err
	}
	o, err := s.svc.Orders.SetOrderStatus(ctx, actor, orderID, target)
	if err != nil {
		return nil, err
	}
	s.event(actor).Str("number", o.Number).Str("status", string(o.Status)).Msg("order status set")
	return o, nil
}

// ── Invoices ─────────────────────────────────────────────────────────────────

func (s *appService) CreateInvoice(ctx context.Context, actor core.Actor, orderID int, req CreateInvoiceRequest) (*core.Invoice, error) {
	in, err := req.toInput()
	if err != nil {
		return nil, err
	}
	inv, err := s.svc.Invoices.CreateFromOrder(ctx, actor, orderID, in)
	if err != nil {
		return nil, err
	}
	s.event(actor).Int("order_id", orderID).Str("number", inv.Number).
		Str("due_date", inv.DueDate.Format(dateLayout)).Msg("invoice created")
	return inv, nil
}

func (s *appService) GetInvoice(ctx context.Context, actor core.Actor, invoiceID int) (*core.Invoice, error) {
	return s.svc.Invoices.GetInvoice(ctx, actor, invoiceID)
}

func (s *appService) ListInvoices(ctx context.Context, actor core.Actor, status string) ([]core.Invoice, error) {
	filter, err := parseStatusFilter(core.InvoiceLifecycle, status)
	if err != nil {
		return nil, err
	}
	return s.svc.Invoices.ListInvoices(ctx, actor, filter)
}

func (s *appService) SetInvoiceStatus(ctx context.Context, actor core.Actor, invoiceID int, status string) (*InvoiceStatusResult, error) {
	target, err := core.InvoiceLifecycle.ParseStatus(normalizeStatus(status))
	if err != nil {
		return nil, err
	}
	inv, change, err := s.svc.Invoices.SetInvoiceStatus(ctx, actor, invoiceID, target)
	if err != nil {
		return nil, err
	}
	ev := s.event(actor)
	msg := "invoice status set"
	if !change.Natural {
		ev = s.log.Warn().Int("company_id", actor.CompanyID).Int("user_id", actor.UserID)
		msg = "invoice status overridden outside lifecycle"
	}
	ev.Str("number", inv.Number).Str("from", string(change.From)).Str("to", string(change.To)).Msg(msg)
	return &InvoiceStatusResult{Invoice: inv, From: change.From, Override: !change.Natural}, nil
}

// ── Payments & dunning ───────────────────────────────────────────────────────

func (s *appService) RecordPayment(ctx context.Context, actor core.Actor, invoiceID int, req RecordPaymentRequest) (*PaymentResult, error) {
	in, err := req.toInput()
	if err != nil {
		return nil, err
	}
	p, err := s.svc.Payments.RecordPayment(ctx, actor, invoiceID, in)
	if err != nil {
		return nil, err
	}
	inv, err := s.svc.Invoices.GetInvoice(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	ev := s.event(actor).Str("number", inv.Number).Str("amount", p.Amount.StringFixed(2)).
		Str("paid_amount", inv.PaidAmount.StringFixed(2)).Str("status", string(inv.Status))
	if inv.OpenAmount().Sign() < 0 {
		ev = ev.Str("overpaid", inv.OpenAmount().Neg().StringFixed(2))
	}
	ev.Msg("payment recorded")
	return &PaymentResult{Payment: p, Invoice: inv}, nil
}

func (s *appService) ListPayments(ctx context.Context, actor core.Actor, invoiceID int) ([]core.Payment, error) {
	return s.svc.Payments.ListPayments(ctx, actor, invoiceID)
}

func (s *appService) CreateReminder(ctx context.Context, actor core.Actor, invoiceID int) (*ReminderResult, error) {
	r, err := s.svc.Dunning.CreateNextReminder(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	inv, err := s.svc.Invoices.GetInvoice(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	s.event(actor).Str("number", inv.Number).Str("level", string(r.Level)).
		Str("fee", r.Fee.StringFixed(2)).Msg("reminder issued")
	return &ReminderResult{Reminder: r, Invoice: inv}, nil
}

func (s *appService) ListReminders(ctx context.Context, actor core.Actor, invoiceID int) ([]core.Reminder, error) {
	return s.svc.Dunning.ListReminders(ctx, actor, invoiceID)
}

func (s *appService) SweepOverdue(ctx context.Context, actor core.Actor, asOf string) (*SweepResult, error) {
	cutoff, err := parseDate("as_of", asOf)
	if err != nil {
		return nil, err
	}
	if cutoff.IsZero() {
		cutoff = s.now()
	}

	var changed []core.Invoice
	err = s.locker.WithCompanyLock(ctx, actor.CompanyID, overdueSweepLock, func(ctx context.Context) error {
		var err error
		changed, err = s.svc.Dunning.MarkOverdue(ctx, actor, cutoff)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.event(actor).Str("as_of", cutoff.Format(dateLayout)).Int("count", len(changed)).Msg("overdue sweep finished")
	return &SweepResult{CompanyID: actor.CompanyID, AsOf: cutoff, Invoices: changed}, nil
}

// ── Credit notes ─────────────────────────────────────────────────────────────

func (s *appService) CreateCreditNote(ctx context.Context, actor core.Actor, invoiceID int, req CreateCreditNoteRequest) (*core.CreditNote, error) {
	in, err := req.toInput()
	if err != nil {
		return nil, err
	}
	cn, err := s.svc.CreditNotes.CreateFromInvoice(ctx, actor, invoiceID, in)
	if err != nil {
		return nil, err
	}
	s.event(actor).Int("invoice_id", invoiceID).Str("number", cn.Number).
		Str("total", cn.Total.StringFixed(2)).Msg("credit note issued")
	return cn, nil
}

func (s *appService) GetCreditNote(ctx context.Context, actor core.Actor, creditNoteID int) (*core.CreditNote, error) {
	return s.svc.CreditNotes.GetCreditNote(ctx, actor, creditNoteID)
}

func (s *appService) ListCreditNotes(ctx context.Context, actor core.Actor, invoiceID *int) ([]core.CreditNote, error) {
	return s.svc.CreditNotes.ListCreditNotes(ctx, actor, invoiceID)
}
