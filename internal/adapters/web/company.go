package web

import (
	"net/http"

	"erp-sales/internal/app"
)

// apiGetCompany handles GET /api/company.
func (h *Handler) apiGetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCompany(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, c)
}

// apiComputeTotals handles POST /api/totals.
// Body: { discount_percent?, items: [...] }. Nothing is persisted.
func (h *Handler) apiComputeTotals(w http.ResponseWriter, r *http.Request) {
	var req app.ComputeTotalsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.ComputeTotals(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, toTotalsResponse(res))
}
