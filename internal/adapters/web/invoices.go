package web

import (
	"net/http"

	"erp-sales/internal/app"
)

// apiListInvoices handles GET /api/invoices?status=.
func (h *Handler) apiListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.ListInvoices(r.Context(), actorFrom(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toInvoices(invoices))
}

// apiGetInvoice handles GET /api/invoices/{id}.
func (h *Handler) apiGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.GetInvoice(r.Context(), actorFrom(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toInvoice(inv))
}

// apiSetInvoiceStatus handles PATCH /api/invoices/{id}/status.
// Any invoice status is accepted; the response flags overrides.
func (h *Handler) apiSetInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.SetStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.SetInvoiceStatus(r.Context(), actorFrom(r), id, req.Status)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, invoiceStatusResponse{
		invoiceJSON:    toInvoice(res.Invoice),
		PreviousStatus: string(res.From),
		Override:       res.Override,
	})
}

// ── Payments ──────────────────────────────────────────────────────────────────

// apiListPayments handles GET /api/invoices/{id}/payments.
func (h *Handler) apiListPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	payments, err := h.svc.ListPayments(r.Context(), actorFrom(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toPayments(payments))
}

// apiRecordPayment handles POST /api/invoices/{id}/payments.
// Body: { amount, method, paid_on?, reference? }.
func (h *Handler) apiRecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.RecordPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.RecordPayment(r.Context(), actorFrom(r), id, req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeCreated(w, paymentResponse{
		Payment: toPayment(res.Payment),
		Invoice: toInvoice(res.Invoice),
	})
}

// ── Dunning ───────────────────────────────────────────────────────────────────

// apiListReminders handles GET /api/invoices/{id}/reminders.
func (h *Handler) apiListReminders(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	reminders, err := h.svc.ListReminders(r.Context(), actorFrom(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toReminders(reminders))
}

// apiCreateReminder handles POST /api/invoices/{id}/reminders.
func (h *Handler) apiCreateReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.CreateReminder(r.Context(), actorFrom(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeCreated(w, reminderResponse{
		Reminder: toReminder(res.Reminder),
		Invoice:  toInvoice(res.Invoice),
	})
}

type sweepRequest struct {
	AsOf string `json:"as_of,omitempty"`
}

// apiSweepOverdue handles POST /api/invoices/overdue-sweep.
// Body (optional): { as_of? } where as_of defaults to today.
func (h *Handler) apiSweepOverdue(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	if req.AsOf == "" {
		req.AsOf = r.URL.Query().Get("as_of")
	}
	res, err := h.svc.SweepOverdue(r.Context(), actorFrom(r), req.AsOf)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, sweepResponse{
		AsOf:     date(res.AsOf),
		Count:    len(res.Invoices),
		Invoices: toInvoices(res.Invoices),
	})
}

// ── Credit notes ──────────────────────────────────────────────────────────────

// apiListInvoiceCreditNotes handles GET /api/invoices/{id}/credit-notes.
func (h *Handler) apiListInvoiceCreditNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	notes, err := h.svc.ListCreditNotes(r.Context(), actorFrom(r), &id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toCreditNotes(notes))
}

// apiCreateCreditNote handles POST /api/invoices/{id}/credit-notes.
// Body: { reason, issue_date?, items: [...] }.
func (h *Handler) apiCreateCreditNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.CreateCreditNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cn, err := h.svc.CreateCreditNote(r.Context(), actorFrom(r), id, req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeCreated(w, toCreditNote(cn))
}

// apiListCreditNotes handles GET /api/credit-notes.
func (h *Handler) apiListCreditNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListCreditNotes(r.Context(), actorFrom(r), nil)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toCreditNotes(notes))
}

// apiGetCreditNote handles GET /api/credit-notes/{id}.
func (h *Handler) apiGetCreditNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	cn, err := h.svc.GetCreditNote(r.Context(), actorFrom(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toCreditNote(cn))
}
