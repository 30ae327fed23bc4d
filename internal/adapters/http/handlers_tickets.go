package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/partner-portal/internal/application"
	"github.com/viralforge/partner-portal/internal/domain"
)

func (h *Handler) createTicket(w http.ResponseWriter, r *http.Request) {
	var req application.CreateTicketInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_ticket", "invalid json body")
		return
	}
	row, err := h.service.CreateTicket(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_ticket", err)
		return
	}
	writeSuccess(w, http.StatusCreated, row)
}

func (h *Handler) listTickets(w http.ResponseWriter, r *http.Request) {
	in := listInputFromQuery(r)
	rows, err := h.service.ListTickets(r.Context(), actorFromContext(r.Context()), in)
	if err != nil {
		writeMappedError(r.Context(), w, "list_tickets", err)
		return
	}
	writeSuccess(w, http.StatusOK, listResponse(rows, in))
}

func (h *Handler) getTicket(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetTicket(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "ticket_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_ticket", err)
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) replyToTicket(w http.ResponseWriter, r *http.Request) {
	var req application.ReplyTicketInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "reply_ticket", "invalid json body")
		return
	}
	row, err := h.service.ReplyToTicket(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "ticket_id"), req)
	if err != nil {
		writeMappedError(r.Context(), w, "reply_ticket", err)
		return
	}
	writeSuccess(w, http.StatusCreated, row)
}

func (h *Handler) updateTicketStatus(w http.ResponseWriter, r *http.Request) {
	var req application.UpdateTicketStatusInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_ticket_status", "invalid json body")
		return
	}
	row, err := h.service.UpdateTicketStatus(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "ticket_id"), req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_ticket_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) assignTicket(w http.ResponseWriter, r *http.Request) {
	var req application.AssignTicketInput
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "assign_ticket", "invalid json body")
		return
	}
	row, err := h.service.AssignTicket(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "ticket_id"), req)
	if err != nil {
		writeMappedError(r.Context(), w, "assign_ticket", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	in := listInputFromQuery(r)
	rows, err := h.service.ListNotifications(r.Context(), actorFromContext(r.Context()), in)
	if err != nil {
		writeMappedError(r.Context(), w, "list_notifications", err)
		return
	}
	writeSuccess(w, http.StatusOK, listResponse(rows, in))
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.MarkNotificationRead(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "notification_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "mark_notification_read", err)
		return
	}
	writeSuccess(w, http.StatusOK, row)
}

// ingestEvent accepts storefront events over HTTP for deployments without Kafka.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if actor.Role != application.RoleSystem && actor.Role != application.RoleAdmin {
		writeMappedError(r.Context(), w, "ingest_event", domain.ErrForbidden)
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeValidationError(r.Context(), w, "ingest_event", "unreadable body")
		return
	}
	if err := h.service.HandleOrderCompleted(r.Context(), payload); err != nil {
		writeMappedError(r.Context(), w, "ingest_event", err)
		return
	}
	writeMessage(w, http.StatusAccepted, "event accepted")
}
