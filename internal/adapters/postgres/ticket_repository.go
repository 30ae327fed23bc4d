package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"gorm.io/gorm"
)

type ticketRepository struct {
	db *gorm.DB
}

func (r *ticketRepository) Create(ctx context.Context, ticket domain.Ticket) error {
	row := fromDomainTicket(ticket)
	return translateWrite(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *ticketRepository) Get(ctx context.Context, ticketID uuid.UUID) (domain.Ticket, error) {
	var row ticketModel
	if err := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID).Take(&row).Error; err != nil {
		return domain.Ticket{}, notFound(err)
	}
	return toDomainTicket(row), nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket domain.Ticket) error {
	res := r.db.WithContext(ctx).
		Model(&ticketModel{}).
		Where("ticket_id = ?", ticket.TicketID).
		Updates(map[string]any{
			"subject":     ticket.Subject,
			"description": ticket.Description,
			"category":    ticket.Category,
			"priority":    ticket.Priority,
			"status":      string(ticket.Status),
			"assigned_to": ticket.AssignedTo,
			"updated_at":  ticket.UpdatedAt,
			"closed_at":   ticket.ClosedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	q := r.db.WithContext(ctx).Model(&ticketModel{})
	if filter.PartnerID != nil {
		q = q.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AssignedTo != "" {
		q = q.Where("assigned_to = ?", filter.AssignedTo)
	}
	var rows []ticketModel
	if err := page(q.Order("number DESC"), filter.Limit, filter.Offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Ticket, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainTicket(row))
	}
	return out, nil
}

type replyRepository struct {
	db *gorm.DB
}

func (r *replyRepository) Add(ctx context.Context, reply domain.TicketReply) error {
	row := ticketReplyModel{
		ReplyID:    reply.ReplyID,
		TicketID:   reply.TicketID,
		AuthorID:   reply.AuthorID,
		AuthorRole: reply.AuthorRole,
		Body:       reply.Body,
		CreatedAt:  reply.CreatedAt,
	}
	return translateWrite(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *replyRepository) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]domain.TicketReply, error) {
	var rows []ticketReplyModel
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC, reply_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.TicketReply, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainReply(row))
	}
	return out, nil
}
