package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/partner-portal/internal/application"
)

func (h *Handler) createPartner(w http.ResponseWriter, r *http.Request) {
	var req application.CreatePartnerInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_partner", "invalid json body")
		return
	}
	row, err := h.service.CreatePartner(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_partner", err)
		return
	}
	writeSuccess(w, http.StatusCreated, row)
}

func (h *Handler) listPartners(w http.ResponseWriter, r *http.Request) {
	in := listInputFromQuery(r)
	rows, err := h.service.ListPartners(r.Context(), actorFromContext(r.Context()), in)
	if err != nil {
		writeMappedError(r.Context(), w, "list_partners", err)
		return
	}
	writeSuccess(w, http.StatusOK, listResponse(rows, in))
}

func (h *Handler) getPartner(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.GetPartner(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "partner_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_partner", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) updatePartner(w http.ResponseWriter, r *http.Request) {
	var req application.UpdatePartnerInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_partner", "invalid json body")
		return
	}
	row, err := h.service.UpdatePartner(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "partner_id"), req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_partner", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) setPartnerStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "set_partner_status", "invalid json body")
		return
	}
	row, err := h.service.SetPartnerStatus(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "partner_id"), req.Status)
	if err != nil {
		writeMappedError(r.Context(), w, "set_partner_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) listPartnerStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListPartnerStock(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "partner_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "list_partner_stock", err)
		return
	}
	writeSuccess(w, http.StatusOK, rows)
}
