package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"erp-sales/internal/app"
)

// Options configures the HTTP handler.
type Options struct {
	AllowedOrigins []string
	JWTSecret      string
	Log            zerolog.Logger
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
	log       zerolog.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: opts.JWTSecret,
		log:       opts.Log,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(opts.Log))
	r.Use(Recoverer(opts.Log))
	r.Use(CORS(opts.AllowedOrigins))

	// ── Public ───────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Get("/api/schema/{name}", h.apiSchema)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/company", h.apiGetCompany)
		r.Post("/api/totals", h.apiComputeTotals)

		// ── Quotes ───────────────────────────────────────────────────────────
		r.Get("/api/quotes", h.apiListQuotes)
		r.Post("/api/quotes", h.apiCreateQuote)
		r.Get("/api/quotes/{id}", h.apiGetQuote)
		r.Delete("/api/quotes/{id}", h.apiDeleteQuote)
		r.Post("/api/quotes/{id}/send", h.apiSendQuote)
		r.Post("/api/quotes/{id}/confirm", h.apiConfirmQuote)
		r.Post("/api/quotes/{id}/cancel", h.apiCancelQuote)
		r.Post("/api/quotes/{id}/convert", h.apiConvertQuote)

		// ── Orders ───────────────────────────────────────────────────────────
		r.Get("/api/orders", h.apiListOrders)
		r.Post("/api/orders", h.apiCreateOrder)
		r.Get("/api/orders/{id}", h.apiGetOrder)
		r.Patch("/api/orders/{id}/status", h.apiSetOrderStatus)
		r.Post("/api/orders/{id}/invoice", h.apiInvoiceOrder)

		// ── Invoices ─────────────────────────────────────────────────────────
		r.Get("/api/invoices", h.apiListInvoices)
		r.Post("/api/invoices/overdue-sweep", h.apiSweepOverdue)
		r.Get("/api/invoices/{id}", h.apiGetInvoice)
		r.Patch("/api/invoices/{id}/status", h.apiSetInvoiceStatus)
		r.Get("/api/invoices/{id}/payments", h.apiListPayments)
		r.Post("/api/invoices/{id}/payments", h.apiRecordPayment)
		r.Get("/api/invoices/{id}/reminders", h.apiListReminders)
		r.Post("/api/invoices/{id}/reminders", h.apiCreateReminder)
		r.Get("/api/invoices/{id}/credit-notes", h.apiListInvoiceCreditNotes)
		r.Post("/api/invoices/{id}/credit-notes", h.apiCreateCreditNote)

		// ── Credit notes ─────────────────────────────────────────────────────
		r.Get("/api/credit-notes", h.apiListCreditNotes)
		r.Get("/api/credit-notes/{id}", h.apiGetCreditNote)
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// idParam parses the {id} URL parameter. On failure it writes a 400 and
// returns false.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id: "+chi.URLParam(r, "id"), "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return decodeJSON(w, r, v)
}
