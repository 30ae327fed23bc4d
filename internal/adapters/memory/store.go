package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/ports"
)

// store holds every table behind one lock so multi-row writes stay atomic.
type store struct {
	mu            sync.Mutex
	partners      map[uuid.UUID]domain.Partner
	leads         map[uuid.UUID]domain.Lead
	kits          map[uuid.UUID]domain.Kit
	stock         map[stockKey]domain.PartnerKitStock
	distributions []domain.KitDistribution
	sales         map[uuid.UUID]domain.Sale
	saleOrder     []uuid.UUID
	slabs         map[uuid.UUID]domain.CommissionSlab
	payouts       map[payoutKey]domain.CommissionPayout
	tickets       map[uuid.UUID]domain.Ticket
	replies       map[uuid.UUID][]domain.TicketReply
	notifications map[uuid.UUID]domain.Notification
	outbox        map[uuid.UUID]ports.OutboxRecord
	outboxOrder   []uuid.UUID
	idempotency   map[string]ports.IdempotencyRecord
	dedup         map[string]dedupRow
}

type stockKey struct {
	partnerID uuid.UUID
	kitID     uuid.UUID
}

type payoutKey struct {
	partnerID uuid.UUID
	period    string
}

type Repositories struct {
	Partners      *PartnerRepository
	Leads         *LeadRepository
	Kits          *KitRepository
	Sales         *SaleRepository
	Slabs         *SlabRepository
	Payouts       *PayoutRepository
	Tickets       *TicketRepository
	Replies       *ReplyRepository
	Notifications *NotificationRepository
	Outbox        *OutboxRepository
	Idempotency   *IdempotencyRepository
	EventDedup    *EventDedupRepository
}

func NewRepositories() *Repositories {
	st := &store{
		partners:      map[uuid.UUID]domain.Partner{},
		leads:         map[uuid.UUID]domain.Lead{},
		kits:          map[uuid.UUID]domain.Kit{},
		stock:         map[stockKey]domain.PartnerKitStock{},
		sales:         map[uuid.UUID]domain.Sale{},
		slabs:         map[uuid.UUID]domain.CommissionSlab{},
		payouts:       map[payoutKey]domain.CommissionPayout{},
		tickets:       map[uuid.UUID]domain.Ticket{},
		replies:       map[uuid.UUID][]domain.TicketReply{},
		notifications: map[uuid.UUID]domain.Notification{},
		outbox:        map[uuid.UUID]ports.OutboxRecord{},
		idempotency:   map[string]ports.IdempotencyRecord{},
		dedup:         map[string]dedupRow{},
	}
	return &Repositories{
		Partners:      &PartnerRepository{st: st},
		Leads:         &LeadRepository{st: st},
		Kits:          &KitRepository{st: st},
		Sales:         &SaleRepository{st: st},
		Slabs:         &SlabRepository{st: st},
		Payouts:       &PayoutRepository{st: st},
		Tickets:       &TicketRepository{st: st},
		Replies:       &ReplyRepository{st: st},
		Notifications: &NotificationRepository{st: st},
		Outbox:        &OutboxRepository{st: st},
		Idempotency:   &IdempotencyRepository{st: st},
		EventDedup:    &EventDedupRepository{st: st},
	}
}

// Ping always succeeds; it lets the in-memory driver stand in for a database.
func (r *Repositories) Ping(context.Context) error { return nil }

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
