package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
)

func (s *Service) CreateTicket(ctx context.Context, actor Actor, input CreateTicketInput) (domain.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return domain.Ticket{}, err
	}
	partnerID, err := resolvePartnerID(actor, input.PartnerID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if err := domain.ValidateTicket(input.Subject, input.Description); err != nil {
		return domain.Ticket{}, err
	}
	if _, err := s.partners.Get(ctx, partnerID); err != nil {
		return domain.Ticket{}, err
	}
	return withIdempotency(ctx, s, idempotencyScope(actor, "create_ticket"), input, func() (domain.Ticket, error) {
		now := s.nowFn()
		ticket := domain.Ticket{
			TicketID:    uuid.New(),
			Number:      domain.NewTicketNumber(now),
			PartnerID:   partnerID,
			Subject:     strings.TrimSpace(input.Subject),
			Description: strings.TrimSpace(input.Description),
			Category:    domain.NormalizeTicketCategory(input.Category),
			Priority:    domain.NormalizeTicketPriority(input.Priority),
			Status:      domain.TicketStatusOpen,
			CreatedBy:   actor.SubjectID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return domain.Ticket{}, err
		}
		_ = s.enqueueEvent(ctx, actor, domain.EventTicketCreated, partnerID.String(), map[string]any{
			"ticket_id":  ticket.TicketID.String(),
			"number":     ticket.Number,
			"partner_id": partnerID.String(),
			"category":   ticket.Category,
			"priority":   ticket.Priority,
		})
		s.notify(ctx, []string{domain.AdminRecipient}, "ticket_created", "New support ticket",
			ticket.Number+": "+ticket.Subject, domain.EventTicketCreated,
			map[string]string{"ticket_id": ticket.TicketID.String(), "priority": ticket.Priority})
		return ticket, nil
	})
}

func (s *Service) GetTicket(ctx context.Context, actor Actor, ticketID string) (TicketDetail, error) {
	ticket, err := s.loadTicket(ctx, actor, ticketID)
	if err != nil {
		return TicketDetail{}, err
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.TicketID)
	if err != nil {
		return TicketDetail{}, err
	}
	if replies == nil {
		replies = []domain.TicketReply{}
	}
	return TicketDetail{Ticket: ticket, Replies: replies}, nil
}

func (s *Service) ListTickets(ctx context.Context, actor Actor, input ListInput) ([]domain.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter := domain.TicketFilter{AssignedTo: strings.TrimSpace(input.AssignedTo)}
	if isStaff(actor) {
		id, err := parseOptionalID("partner_id", input.PartnerID)
		if err != nil {
			return nil, err
		}
		filter.PartnerID = id
	} else {
		id, err := resolvePartnerID(actor, input.PartnerID)
		if err != nil {
			return nil, err
		}
		filter.PartnerID = &id
	}
	if input.Status != "" {
		status, err := domain.ParseTicketStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = string(status)
	}
	filter.Limit, filter.Offset = s.page(input.Limit, input.Offset)
	return s.tickets.List(ctx, filter)
}

// ReplyToTicket appends a reply. A partner reply on a resolved ticket reopens it and
// the first staff reply on an open ticket starts work on it.
func (s *Service) ReplyToTicket(ctx context.Context, actor Actor, ticketID string, input ReplyTicketInput) (domain.TicketReply, error) {
	ticket, err := s.loadTicket(ctx, actor, ticketID)
	if err != nil {
		return domain.TicketReply{}, err
	}
	body := strings.TrimSpace(input.Body)
	if body == "" || len(body) > 5000 {
		return domain.TicketReply{}, fmt.Errorf("%w: reply body must be 1-5000 chars", domain.ErrInvalidInput)
	}
	if ticket.Status == domain.TicketStatusClosed {
		return domain.TicketReply{}, fmt.Errorf("%w: ticket is closed", domain.ErrInvalidTransition)
	}
	now := s.nowFn()
	reply := domain.TicketReply{
		ReplyID:    uuid.New(),
		TicketID:   ticket.TicketID,
		AuthorID:   actor.SubjectID,
		AuthorRole: normalizeRole(actor.Role),
		Body:       body,
		CreatedAt:  now,
	}
	if err := s.replies.Add(ctx, reply); err != nil {
		return domain.TicketReply{}, err
	}

	staff := isStaff(actor)
	next := ticket.Status
	switch {
	case !staff && ticket.Status == domain.TicketStatusResolved:
		next = domain.TicketStatusInProgress
	case staff && ticket.Status == domain.TicketStatusOpen:
		next = domain.TicketStatusInProgress
	}
	if next != ticket.Status {
		_ = ticket.TransitionTo(next, now)
	}
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return domain.TicketReply{}, err
	}

	_ = s.enqueueEvent(ctx, actor, domain.EventTicketReplied, ticket.PartnerID.String(), map[string]any{
		"ticket_id":   ticket.TicketID.String(),
		"reply_id":    reply.ReplyID.String(),
		"partner_id":  ticket.PartnerID.String(),
		"author_role": reply.AuthorRole,
		"status":      string(ticket.Status),
	})
	recipients := []string{domain.PartnerRecipient(ticket.PartnerID.String())}
	if !staff {
		recipients = []string{domain.AdminRecipient}
		if ticket.AssignedTo != "" {
			recipients = []string{ticket.AssignedTo}
		}
	}
	s.notify(ctx, recipients, "ticket_replied", "New reply on "+ticket.Number, truncate(body, 140),
		domain.EventTicketReplied, map[string]string{"ticket_id": ticket.TicketID.String()})
	return reply, nil
}

// UpdateTicketStatus moves a ticket through its lifecycle. Partners may only close their
// own tickets or reopen resolved ones.
func (s *Service) UpdateTicketStatus(ctx context.Context, actor Actor, ticketID string, input UpdateTicketStatusInput) (domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, actor, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	next, err := domain.ParseTicketStatus(input.Status)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !isStaff(actor) {
		reopen := ticket.Status == domain.TicketStatusResolved && next == domain.TicketStatusInProgress
		if next != domain.TicketStatusClosed && !reopen {
			return domain.Ticket{}, domain.ErrForbidden
		}
	}
	previous := ticket.Status
	if err := ticket.TransitionTo(next, s.nowFn()); err != nil {
		return domain.Ticket{}, err
	}
	if previous == ticket.Status {
		return ticket, nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return domain.Ticket{}, err
	}
	_ = s.enqueueEvent(ctx, actor, domain.EventTicketStatusChanged, ticket.PartnerID.String(), map[string]any{
		"ticket_id":       ticket.TicketID.String(),
		"partner_id":      ticket.PartnerID.String(),
		"previous_status": string(previous),
		"status":          string(ticket.Status),
	})
	s.notify(ctx, []string{domain.PartnerRecipient(ticket.PartnerID.String())}, "ticket_status",
		ticket.Number+" is now "+string(ticket.Status), ticket.Subject, domain.EventTicketStatusChanged,
		map[string]string{"ticket_id": ticket.TicketID.String(), "status": string(ticket.Status)})
	return ticket, nil
}

func (s *Service) AssignTicket(ctx context.Context, actor Actor, ticketID string, input AssignTicketInput) (domain.Ticket, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Ticket{}, err
	}
	assignee := strings.TrimSpace(input.AssigneeID)
	if assignee == "" {
		return domain.Ticket{}, fmt.Errorf("%w: assignee_id is required", domain.ErrInvalidInput)
	}
	ticket, err := s.loadTicket(ctx, actor, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return domain.Ticket{}, fmt.Errorf("%w: ticket is closed", domain.ErrInvalidTransition)
	}
	if ticket.AssignedTo == assignee {
		return ticket, nil
	}
	ticket.AssignedTo = assignee
	ticket.UpdatedAt = s.nowFn()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return domain.Ticket{}, err
	}
	s.notify(ctx, []string{assignee}, "ticket_assigned", "Ticket assigned: "+ticket.Number, ticket.Subject,
		domain.EventTicketStatusChanged, map[string]string{"ticket_id": ticket.TicketID.String()})
	return ticket, nil
}

func (s *Service) loadTicket(ctx context.Context, actor Actor, ticketID string) (domain.Ticket, error) {
	if err := requireActor(actor); err != nil {
		return domain.Ticket{}, err
	}
	id, err := parseID("ticket_id", ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	ticket, err := s.tickets.Get(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}
	if err := authorizePartner(actor, ticket.PartnerID); err != nil {
		return domain.Ticket{}, domain.ErrNotFound
	}
	return ticket, nil
}

func truncate(v string, n int) string {
	r := []rune(v)
	if len(r) <= n {
		return v
	}
	return string(r[:n]) + "..."
}
