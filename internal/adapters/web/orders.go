package web

import (
	"net/http"

	"erp-sales/internal/app"
)

// apiListOrders handles GET /api/orders?status=.
func (h *Handler) apiListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListOrders(r.Context(), actorFrom(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toOrders(orders))
}

// apiCreateOrder handles POST /api/orders.
func (h *Handler) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.svc.CreateOrder(r.Context(), actorFrom(r), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeCreated(w, toOrder(o))
}

// apiGetOrder handles GET /api/orders/{id}.
func (h *Handler) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	o, err := h.svc.GetOrder(r.Context(), actorFrom(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toOrder(o))
}

// apiSetOrderStatus handles PATCH /api/orders/{id}/status.
// Body: { status }. The move must follow the order lifecycle.
func (h *Handler) apiSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.SetStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.svc.SetOrderStatus(r.Context(), actorFrom(r), id, req.Status)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toOrder(o))
}

// apiInvoiceOrder handles POST /api/orders/{id}/invoice.
// Body (optional): { issue_date?, due_date?, notes? }.
func (h *Handler) apiInvoiceOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.CreateInvoiceRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.CreateInvoice(r.Context(), actorFrom(r), id, req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeCreated(w, toInvoice(inv))
}
