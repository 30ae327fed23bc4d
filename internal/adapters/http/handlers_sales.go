package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/partner-portal/internal/application"
)

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request) {
	var req application.RecordSaleInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "record_sale", "invalid json body")
		return
	}
	row, err := h.service.RecordSale(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeMappedError(r.Context(), w, "record_sale", err)
		return
	}
	writeSuccess(w, http.StatusCreated, row)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	in := listInputFromQuery(r)
	rows, err := h.service.ListSales(r.Context(), actorFromContext(r.Context()), in)
	if err != nil {
		writeMappedError(r.Context(), w, "list_sales", err)
		return
	}
	writeSuccess(w, http.StatusOK, listResponse(rows, in))
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.GetSale(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "sale_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_sale", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.CancelSale(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "sale_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "cancel_sale", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}
