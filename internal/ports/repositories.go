package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
)

type PartnerRepository interface {
	Create(ctx context.Context, partner domain.Partner) error
	Get(ctx context.Context, partnerID uuid.UUID) (domain.Partner, error)
	Update(ctx context.Context, partner domain.Partner) error
	List(ctx context.Context, filter domain.PartnerFilter) ([]domain.Partner, error)
}

type LeadRepository interface {
	Create(ctx context.Context, lead domain.Lead) error
	Get(ctx context.Context, leadID uuid.UUID) (domain.Lead, error)
	Update(ctx context.Context, lead domain.Lead) error
	List(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error)
}

type DistributeKitsParams struct {
	DistributionID uuid.UUID
	KitID          uuid.UUID
	PartnerID      uuid.UUID
	Quantity       int
	DistributedBy  string
	At             time.Time
}

type DistributionResult struct {
	Kit          domain.Kit
	Stock        domain.PartnerKitStock
	Distribution domain.KitDistribution
}

type KitRepository interface {
	Create(ctx context.Context, kit domain.Kit) error
	Get(ctx context.Context, kitID uuid.UUID) (domain.Kit, error)
	List(ctx context.Context) ([]domain.Kit, error)
	Restock(ctx context.Context, kitID uuid.UUID, quantity int, at time.Time) (domain.Kit, error)
	// Distribute moves units from the warehouse to a partner in one transaction.
	Distribute(ctx context.Context, params DistributeKitsParams) (DistributionResult, error)
	ListPartnerStock(ctx context.Context, partnerID uuid.UUID) ([]domain.PartnerKitStock, error)
}

type RecordSaleParams struct {
	Sale domain.Sale
	// ConsumeStock decrements the partner's stock of Sale.KitID by one.
	ConsumeStock bool
	// ConvertLead marks Sale.LeadID converted and links it to the sale.
	ConvertLead bool
}

type SaleRepository interface {
	// Record inserts the sale together with its stock and lead side effects.
	Record(ctx context.Context, params RecordSaleParams) (domain.Sale, error)
	Get(ctx context.Context, saleID uuid.UUID) (domain.Sale, error)
	Cancel(ctx context.Context, saleID uuid.UUID, at time.Time) (domain.Sale, error)
	List(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]domain.Sale, error)
}

type SlabRepository interface {
	Create(ctx context.Context, slab domain.CommissionSlab) error
	Get(ctx context.Context, slabID uuid.UUID) (domain.CommissionSlab, error)
	Update(ctx context.Context, slab domain.CommissionSlab) error
	Delete(ctx context.Context, slabID uuid.UUID) error
	List(ctx context.Context) ([]domain.CommissionSlab, error)
}

type PayoutRepository interface {
	// CreateIfAbsent stores the payout unless one already exists for the partner and
	// period, in which case the existing row is returned with created=false.
	CreateIfAbsent(ctx context.Context, payout domain.CommissionPayout) (domain.CommissionPayout, bool, error)
	ListByPeriod(ctx context.Context, period string) ([]domain.CommissionPayout, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]domain.CommissionPayout, error)
}

type TicketRepository interface {
	Create(ctx context.Context, ticket domain.Ticket) error
	Get(ctx context.Context, ticketID uuid.UUID) (domain.Ticket, error)
	Update(ctx context.Context, ticket domain.Ticket) error
	List(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error)
}

type ReplyRepository interface {
	Add(ctx context.Context, reply domain.TicketReply) error
	ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]domain.TicketReply, error)
}

type NotificationRepository interface {
	CreateBatch(ctx context.Context, items []domain.Notification) error
	Get(ctx context.Context, notificationID uuid.UUID) (domain.Notification, error)
	List(ctx context.Context, recipients []string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID, at time.Time) (domain.Notification, error)
}

type OutboxEvent struct {
	EventID          uuid.UUID
	EventType        string
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	OccurredAt       time.Time
	SchemaVersion    string
	TraceID          string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

const (
	IdempotencyPending   = "pending"
	IdempotencyCompleted = "completed"
)

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
	Release(ctx context.Context, key string) error
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
