package domain

const (
	EventPartnerCreated        = "partner.created"
	EventPartnerStatusChanged  = "partner.status_changed"
	EventLeadCreated           = "lead.created"
	EventLeadStatusChanged     = "lead.status_changed"
	EventLeadReassigned        = "lead.reassigned"
	EventKitDistributed        = "kit.distributed"
	EventSaleRecorded          = "sale.recorded"
	EventSaleCancelled         = "sale.cancelled"
	EventCommissionMonthClosed = "commission.month_closed"
	EventTicketCreated         = "ticket.created"
	EventTicketReplied         = "ticket.replied"
	EventTicketStatusChanged   = "ticket.status_changed"
	EventOrderCompleted        = "order.completed"
	EventSchemaVersion         = "1.0"
	DefaultPartitionKeyPath    = "data.partner_id"
)

func IsEmittedEvent(eventType string) bool {
	switch eventType {
	case EventPartnerCreated, EventPartnerStatusChanged, EventLeadCreated, EventLeadStatusChanged,
		EventLeadReassigned, EventKitDistributed, EventSaleRecorded, EventSaleCancelled,
		EventCommissionMonthClosed, EventTicketCreated, EventTicketReplied, EventTicketStatusChanged:
		return true
	default:
		return false
	}
}

func IsConsumedEvent(eventType string) bool {
	return eventType == EventOrderCompleted
}
