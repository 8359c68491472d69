package web

import (
	"context"
	"net/http"

	"erp-sales/internal/app"
	"erp-sales/internal/core"
)

// apiListQuotes handles GET /api/quotes?status=.
func (h *Handler) apiListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.svc.ListQuotes(r.Context(), actorFrom(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toQuotes(quotes))
}

// apiCreateQuote handles POST /api/quotes.
func (h *Handler) apiCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req app.CreateQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := h.svc.CreateQuote(r.Context(), actorFrom(r), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeCreated(w, toQuote(q))
}

// apiGetQuote handles GET /api/quotes/{id}.
func (h *Handler) apiGetQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q, err := h.svc.GetQuote(r.Context(), actorFrom(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toQuote(q))
}

// apiDeleteQuote handles DELETE /api/quotes/{id}. Only DRAFT quotes can be
// deleted.
func (h *Handler) apiDeleteQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteQuote(r.Context(), actorFrom(r), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type quoteTransition func(ctx context.Context, actor core.Actor, quoteID int) (*core.Quote, error)

// quoteAction adapts one quote transition to a POST handler.
func (h *Handler) quoteAction(fn quoteTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		q, err := fn(r.Context(), actorFrom(r), id)
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		writeJSON(w, toQuote(q))
	}
}

// apiSendQuote handles POST /api/quotes/{id}/send.
func (h *Handler) apiSendQuote(w http.ResponseWriter, r *http.Request) {
	h.quoteAction(h.svc.SendQuote)(w, r)
}

// apiConfirmQuote handles POST /api/quotes/{id}/confirm.
func (h *Handler) apiConfirmQuote(w http.ResponseWriter, r *http.Request) {
	h.quoteAction(h.svc.ConfirmQuote)(w, r)
}

// apiCancelQuote handles POST /api/quotes/{id}/cancel.
func (h *Handler) apiCancelQuote(w http.ResponseWriter, r *http.Request) {
	h.quoteAction(h.svc.CancelQuote)(w, r)
}

// apiConvertQuote handles POST /api/quotes/{id}/convert and returns the new
// order.
func (h *Handler) apiConvertQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	o, err := h.svc.ConvertQuote(r.Context(), actorFrom(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeCreated(w, toOrder(o))
}
