package postgres

import (
	"encoding/json"

	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/ports"
)

func toDomainPartner(m partnerModel) domain.Partner {
	return domain.Partner{
		PartnerID: m.PartnerID, Name: m.Name, Email: m.Email, Phone: m.Phone, Region: m.Region,
		Status: domain.PartnerStatus(m.Status), CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromDomainPartner(p domain.Partner) partnerModel {
	return partnerModel{
		PartnerID: p.PartnerID, Name: p.Name, Email: p.Email, Phone: p.Phone, Region: p.Region,
		Status: string(p.Status), CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func toDomainLead(m leadModel) domain.Lead {
	return domain.Lead{
		LeadID: m.LeadID, PartnerID: m.PartnerID, Name: m.Name, Email: m.Email, Phone: m.Phone,
		Source: m.Source, Status: domain.LeadStatus(m.Status), Notes: m.Notes,
		ConvertedSaleID: m.ConvertedSaleID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromDomainLead(l domain.Lead) leadModel {
	return leadModel{
		LeadID: l.LeadID, PartnerID: l.PartnerID, Name: l.Name, Email: l.Email, Phone: l.Phone,
		Source: l.Source, Status: string(l.Status), Notes: l.Notes,
		ConvertedSaleID: l.ConvertedSaleID, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
	}
}

func toDomainKit(m kitModel) domain.Kit {
	return domain.Kit{
		KitID: m.KitID, SKU: m.SKU, Name: m.Name, UnitPrice: m.UnitPrice, Quantity: m.Quantity,
		Distributed: m.Distributed, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toDomainSale(m saleModel) domain.Sale {
	out := domain.Sale{
		SaleID: m.SaleID, PartnerID: m.PartnerID, LeadID: m.LeadID, KitID: m.KitID,
		ParentSaleID: m.ParentSaleID, Amount: m.Amount, Currency: m.Currency,
		Kind: domain.SaleKind(m.Kind), Status: domain.SaleStatus(m.Status), SoldAt: m.SoldAt,
		CancelledAt: m.CancelledAt, CreatedAt: m.CreatedAt,
	}
	if m.OrderRef != nil {
		out.OrderRef = *m.OrderRef
	}
	return out
}

func fromDomainSale(s domain.Sale) saleModel {
	m := saleModel{
		SaleID: s.SaleID, PartnerID: s.PartnerID, LeadID: s.LeadID, KitID: s.KitID,
		ParentSaleID: s.ParentSaleID, Amount: s.Amount, Currency: s.Currency, Kind: string(s.Kind),
		Status: string(s.Status), SoldAt: s.SoldAt, CancelledAt: s.CancelledAt, CreatedAt: s.CreatedAt,
	}
	if s.OrderRef != "" {
		ref := s.OrderRef
		m.OrderRef = &ref
	}
	return m
}

func toDomainSlab(m slabModel) domain.CommissionSlab {
	return domain.CommissionSlab{
		SlabID: m.SlabID, Name: m.Name, MinSales: m.MinSales, MaxSales: m.MaxSales,
		RatePercent: m.RatePercent, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toDomainPayout(m payoutModel) domain.CommissionPayout {
	return domain.CommissionPayout{
		PayoutID: m.PayoutID, PartnerID: m.PartnerID, Period: m.Period, Currency: m.Currency,
		FirstMonthCount: m.FirstMonthCount, SecondMonthCount: m.SecondMonthCount,
		FirstMonthTotal: m.FirstMonthTotal, SecondMonthTotal: m.SecondMonthTotal, Total: m.Total,
		ClosedBy: m.ClosedBy, ClosedAt: m.ClosedAt,
	}
}

func toDomainTicket(m ticketModel) domain.Ticket {
	return domain.Ticket{
		TicketID: m.TicketID, Number: m.Number, PartnerID: m.PartnerID, Subject: m.Subject,
		Description: m.Description, Category: m.Category, Priority: m.Priority,
		Status: domain.TicketStatus(m.Status), AssignedTo: m.AssignedTo, CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt, ClosedAt: m.ClosedAt,
	}
}

func fromDomainTicket(t domain.Ticket) ticketModel {
	return ticketModel{
		TicketID: t.TicketID, Number: t.Number, PartnerID: t.PartnerID, Subject: t.Subject,
		Description: t.Description, Category: t.Category, Priority: t.Priority,
		Status: string(t.Status), AssignedTo: t.AssignedTo, CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt, ClosedAt: t.ClosedAt,
	}
}

func toDomainReply(m ticketReplyModel) domain.TicketReply {
	return domain.TicketReply{
		ReplyID: m.ReplyID, TicketID: m.TicketID, AuthorID: m.AuthorID, AuthorRole: m.AuthorRole,
		Body: m.Body, CreatedAt: m.CreatedAt,
	}
}

func toDomainNotification(m notificationModel) domain.Notification {
	out := domain.Notification{
		NotificationID: m.NotificationID, RecipientID: m.RecipientID, Type: m.Type, Title: m.Title,
		Body: m.Body, SourceEventType: m.SourceEventType, CreatedAt: m.CreatedAt, ReadAt: m.ReadAt,
	}
	if m.Metadata != "" {
		_ = json.Unmarshal([]byte(m.Metadata), &out.Metadata)
	}
	return out
}

func fromDomainNotification(n domain.Notification) notificationModel {
	meta := "{}"
	if len(n.Metadata) > 0 {
		if raw, err := json.Marshal(n.Metadata); err == nil {
			meta = string(raw)
		}
	}
	return notificationModel{
		NotificationID: n.NotificationID, RecipientID: n.RecipientID, Type: n.Type, Title: n.Title,
		Body: n.Body, Metadata: meta, SourceEventType: n.SourceEventType, CreatedAt: n.CreatedAt,
		ReadAt: n.ReadAt,
	}
}

func fromOutboxEvent(event ports.OutboxEvent) outboxModel {
	return outboxModel{
		OutboxID:         event.EventID,
		EventType:        event.EventType,
		PartitionKey:     event.PartitionKey,
		PartitionKeyPath: event.PartitionKeyPath,
		Payload:          string(event.Payload),
		SchemaVersion:    event.SchemaVersion,
		TraceID:          event.TraceID,
		CreatedAt:        event.OccurredAt,
		FirstSeenAt:      event.OccurredAt,
	}
}

func toOutboxRecord(row outboxModel) ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID:     row.OutboxID,
		EventType:    row.EventType,
		PartitionKey: row.PartitionKey,
		Payload:      []byte(row.Payload),
		RetryCount:   row.RetryCount,
		PublishedAt:  row.PublishedAt,
		LastError:    row.LastError,
		LastErrorAt:  row.LastErrorAt,
		FirstSeenAt:  row.FirstSeenAt,
	}
}
