package postgres

import (
	"github.com/viralforge/partner-portal/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Partners      *partnerRepository
	Leads         *leadRepository
	Kits          *kitRepository
	Sales         *saleRepository
	Slabs         *slabRepository
	Payouts       *payoutRepository
	Tickets       *ticketRepository
	Replies       *replyRepository
	Notifications *notificationRepository
	Outbox        *outboxRepository
	Idempotency   *idempotencyRepository
	EventDedup    *eventDedupRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Partners:      &partnerRepository{db: db},
		Leads:         &leadRepository{db: db},
		Kits:          &kitRepository{db: db},
		Sales:         &saleRepository{db: db},
		Slabs:         &slabRepository{db: db},
		Payouts:       &payoutRepository{db: db},
		Tickets:       &ticketRepository{db: db},
		Replies:       &replyRepository{db: db},
		Notifications: &notificationRepository{db: db},
		Outbox:        &outboxRepository{db: db},
		Idempotency:   &idempotencyRepository{db: db},
		EventDedup:    &eventDedupRepository{db: db},
	}
}

var (
	_ ports.PartnerRepository      = (*partnerRepository)(nil)
	_ ports.LeadRepository         = (*leadRepository)(nil)
	_ ports.KitRepository          = (*kitRepository)(nil)
	_ ports.SaleRepository         = (*saleRepository)(nil)
	_ ports.SlabRepository         = (*slabRepository)(nil)
	_ ports.PayoutRepository       = (*payoutRepository)(nil)
	_ ports.TicketRepository       = (*ticketRepository)(nil)
	_ ports.ReplyRepository        = (*replyRepository)(nil)
	_ ports.NotificationRepository = (*notificationRepository)(nil)
	_ ports.OutboxRepository       = (*outboxRepository)(nil)
	_ ports.IdempotencyRepository  = (*idempotencyRepository)(nil)
	_ ports.EventDedupRepository   = (*eventDedupRepository)(nil)
)
