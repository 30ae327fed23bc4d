package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/partner-portal/internal/application"
)

func (h *Handler) listSlabs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListSlabs(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeMappedError(r.Context(), w, "list_slabs", err)
		return
	}
	writeSuccess(w, http.StatusOK, rows)
}

func (h *Handler) createSlab(w http.ResponseWriter, r *http.Request) {
	var req application.SlabInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_slab", "invalid json body")
		return
	}
	row, err := h.service.CreateSlab(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_slab", err)
		return
	}
	writeSuccess(w, http.StatusCreated, row)
}

func (h *Handler) updateSlab(w http.ResponseWriter, r *http.Request) {
	var req application.SlabInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_slab", "invalid json body")
		return
	}
	row, err := h.service.UpdateSlab(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "slab_id"), req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_slab", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) deleteSlab(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSlab(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "slab_id")); err != nil {
		writeMappedError(r.Context(), w, "delete_slab", err)
		return
	}
	writeMessage(w, http.StatusOK, "slab deleted")
}

// getStatement serves both /partners/{partner_id}/statement and /commission/statement?partner_id=.
func (h *Handler) getStatement(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := application.StatementQuery{
		PartnerID: chi.URLParam(r, "partner_id"),
		From:      strings.TrimSpace(q.Get("from")),
		To:        strings.TrimSpace(q.Get("to")),
	}
	if query.PartnerID == "" {
		query.PartnerID = strings.TrimSpace(q.Get("partner_id"))
	}
	if raw := strings.TrimSpace(q.Get("as_of")); raw != "" {
		asOf, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeValidationError(r.Context(), w, "get_statement", "as_of must be RFC3339")
			return
		}
		asOf = asOf.UTC()
		query.AsOf = &asOf
	}
	out, err := h.service.GetStatement(r.Context(), actorFromContext(r.Context()), query)
	if err != nil {
		writeMappedError(r.Context(), w, "get_statement", err)
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) commissionReport(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.CommissionReport(r.Context(), actorFromContext(r.Context()), r.URL.Query().Get("period"))
	if err != nil {
		writeMappedError(r.Context(), w, "commission_report", err)
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) closeMonth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string `json:"period"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "close_month", "invalid json body")
		return
	}
	out, err := h.service.CloseMonth(r.Context(), actorFromContext(r.Context()), req.Period)
	if err != nil {
		writeMappedError(r.Context(), w, "close_month", err)
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListPayouts(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "partner_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "list_payouts", err)
		return
	}
	writeSuccess(w, http.StatusOK, rows)
}
