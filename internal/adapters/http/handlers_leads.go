package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/partner-portal/internal/application"
)

func (h *Handler) createLead(w http.ResponseWriter, r *http.Request) {
	var req application.CreateLeadInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_lead", "invalid json body")
		return
	}
	row, err := h.service.CreateLead(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_lead", err)
		return
	}
	writeSuccess(w, http.StatusCreated, row)
}

func (h *Handler) listLeads(w http.ResponseWriter, r *http.Request) {
	in := listInputFromQuery(r)
	rows, err := h.service.ListLeads(r.Context(), actorFromContext(r.Context()), in)
	if err != nil {
		writeMappedError(r.Context(), w, "list_leads", err)
		return
	}
	writeSuccess(w, http.StatusOK, listResponse(rows, in))
}

func (h *Handler) getLead(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.GetLead(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "lead_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_lead", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) updateLeadStatus(w http.ResponseWriter, r *http.Request) {
	var req application.UpdateLeadStatusInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_lead_status", "invalid json body")
		return
	}
	row, err := h.service.UpdateLeadStatus(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "lead_id"), req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_lead_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) reassignLead(w http.ResponseWriter, r *http.Request) {
	var req application.ReassignLeadInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "reassign_lead", "invalid json body")
		return
	}
	row, err := h.service.ReassignLead(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "lead_id"), req)
	if err != nil {
		writeMappedError(r.Context(), w, "reassign_lead", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}
