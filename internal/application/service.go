package application

import (
	"context"
	"time"

	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/ports"
)

type Service struct {
	cfg           Config
	partners      ports.PartnerRepository
	leads         ports.LeadRepository
	kits          ports.KitRepository
	sales         ports.SaleRepository
	slabs         ports.SlabRepository
	payouts       ports.PayoutRepository
	tickets       ports.TicketRepository
	replies       ports.ReplyRepository
	notifications ports.NotificationRepository
	outbox        ports.OutboxRepository
	eventDedup    ports.EventDedupRepository
	idempotency   ports.IdempotencyRepository
	cache         ports.Cache
	nowFn         func() time.Time
}

type Dependencies struct {
	Config        Config
	Partners      ports.PartnerRepository
	Leads         ports.LeadRepository
	Kits          ports.KitRepository
	Sales         ports.SaleRepository
	Slabs         ports.SlabRepository
	Payouts       ports.PayoutRepository
	Tickets       ports.TicketRepository
	Replies       ports.ReplyRepository
	Notifications ports.NotificationRepository
	Outbox        ports.OutboxRepository
	EventDedup    ports.EventDedupRepository
	Idempotency   ports.IdempotencyRepository
	Cache         ports.Cache
	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "partner-portal"
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "INR"
	}
	if cfg.DepreciationFactor < 0 || cfg.DepreciationFactor > 1 {
		cfg.DepreciationFactor = domain.DefaultDepreciationFactor
	}
	if cfg.StatementCacheTTL <= 0 {
		cfg.StatementCacheTTL = 10 * time.Minute
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 200
	}

	cache := deps.Cache
	if cache == nil {
		cache = noopCache{}
	}
	nowFn := deps.Clock
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		cfg:           cfg,
		partners:      deps.Partners,
		leads:         deps.Leads,
		kits:          deps.Kits,
		sales:         deps.Sales,
		slabs:         deps.Slabs,
		payouts:       deps.Payouts,
		tickets:       deps.Tickets,
		replies:       deps.Replies,
		notifications: deps.Notifications,
		outbox:        deps.Outbox,
		eventDedup:    deps.EventDedup,
		idempotency:   deps.Idempotency,
		cache:         cache,
		nowFn:         nowFn,
	}
}

func (s *Service) Config() Config { return s.cfg }

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, error)                       { return "", nil }
func (noopCache) Set(context.Context, string, string, time.Duration) error          { return nil }
func (noopCache) Delete(context.Context, ...string) error                           { return nil }
func (noopCache) IncrWithTTL(context.Context, string, time.Duration) (int64, error) { return 0, nil }
