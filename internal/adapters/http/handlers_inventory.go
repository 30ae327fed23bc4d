package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/partner-portal/internal/application"
)

func (h *Handler) createKit(w http.ResponseWriter, r *http.Request) {
	var req application.CreateKitInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_kit", "invalid json body")
		return
	}
	row, err := h.service.CreateKit(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_kit", err)
		return
	}
	writeSuccess(w, http.StatusCreated, row)
}

func (h *Handler) listKits(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListKits(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeMappedError(r.Context(), w, "list_kits", err)
		return
	}
	writeSuccess(w, http.StatusOK, rows)
}

func (h *Handler) getKit(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.GetKit(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "kit_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_kit", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) restockKit(w http.ResponseWriter, r *http.Request) {
	var req application.RestockKitInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "restock_kit", "invalid json body")
		return
	}
	row, err := h.service.RestockKit(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "kit_id"), req)
	if err != nil {
		writeMappedError(r.Context(), w, "restock_kit", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) distributeKits(w http.ResponseWriter, r *http.Request) {
	var req application.DistributeKitsInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "distribute_kits", "invalid json body")
		return
	}
	out, err := h.service.DistributeKits(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeMappedError(r.Context(), w, "distribute_kits", err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"kit":          out.Kit,
		"stock":        out.Stock,
		"distribution": out.Distribution,
	})
}
