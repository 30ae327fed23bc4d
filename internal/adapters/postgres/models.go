package postgres

import (
	"time"

	"github.com/google/uuid"
)

type partnerModel struct {
	PartnerID uuid.UUID `gorm:"column:partner_id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name"`
	Email     string    `gorm:"column:email"`
	Phone     string    `gorm:"column:phone"`
	Region    string    `gorm:"column:region"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (partnerModel) TableName() string { return "partners" }

type leadModel struct {
	LeadID          uuid.UUID  `gorm:"column:lead_id;type:uuid;primaryKey"`
	PartnerID       uuid.UUID  `gorm:"column:partner_id"`
	Name            string     `gorm:"column:name"`
	Email           string     `gorm:"column:email"`
	Phone           string     `gorm:"column:phone"`
	Source          string     `gorm:"column:source"`
	Status          string     `gorm:"column:status"`
	Notes           string     `gorm:"column:notes"`
	ConvertedSaleID *uuid.UUID `gorm:"column:converted_sale_id"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (leadModel) TableName() string { return "leads" }

type kitModel struct {
	KitID       uuid.UUID `gorm:"column:kit_id;type:uuid;primaryKey"`
	SKU         string    `gorm:"column:sku"`
	Name        string    `gorm:"column:name"`
	UnitPrice   float64   `gorm:"column:unit_price"`
	Quantity    int       `gorm:"column:quantity"`
	Distributed int       `gorm:"column:distributed"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (kitModel) TableName() string { return "kits" }

type partnerKitStockModel struct {
	PartnerID uuid.UUID `gorm:"column:partner_id;type:uuid;primaryKey"`
	KitID     uuid.UUID `gorm:"column:kit_id;type:uuid;primaryKey"`
	Quantity  int       `gorm:"column:quantity"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (partnerKitStockModel) TableName() string { return "partner_kit_stock" }

type partnerKitStockRow struct {
	PartnerID uuid.UUID `gorm:"column:partner_id"`
	KitID     uuid.UUID `gorm:"column:kit_id"`
	SKU       string    `gorm:"column:sku"`
	Quantity  int       `gorm:"column:quantity"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

type kitDistributionModel struct {
	DistributionID uuid.UUID `gorm:"column:distribution_id;type:uuid;primaryKey"`
	KitID          uuid.UUID `gorm:"column:kit_id"`
	PartnerID      uuid.UUID `gorm:"column:partner_id"`
	Quantity       int       `gorm:"column:quantity"`
	DistributedBy  string    `gorm:"column:distributed_by"`
	DistributedAt  time.Time `gorm:"column:distributed_at"`
}

func (kitDistributionModel) TableName() string { return "kit_distributions" }

type saleModel struct {
	SaleID       uuid.UUID  `gorm:"column:sale_id;type:uuid;primaryKey"`
	PartnerID    uuid.UUID  `gorm:"column:partner_id"`
	LeadID       *uuid.UUID `gorm:"column:lead_id"`
	KitID        uuid.UUID  `gorm:"column:kit_id"`
	ParentSaleID *uuid.UUID `gorm:"column:parent_sale_id"`
	OrderRef     *string    `gorm:"column:order_ref"`
	Amount       float64    `gorm:"column:amount"`
	Currency     string     `gorm:"column:currency"`
	Kind         string     `gorm:"column:kind"`
	Status       string     `gorm:"column:status"`
	SoldAt       time.Time  `gorm:"column:sold_at"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
}

func (saleModel) TableName() string { return "sales" }

type slabModel struct {
	SlabID      uuid.UUID `gorm:"column:slab_id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name"`
	MinSales    int       `gorm:"column:min_sales"`
	MaxSales    int       `gorm:"column:max_sales"`
	RatePercent float64   `gorm:"column:rate_percent"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (slabModel) TableName() string { return "commission_slabs" }

type payoutModel struct {
	PayoutID         uuid.UUID `gorm:"column:payout_id;type:uuid;primaryKey"`
	PartnerID        uuid.UUID `gorm:"column:partner_id"`
	Period           string    `gorm:"column:period"`
	Currency         string    `gorm:"column:currency"`
	FirstMonthCount  int       `gorm:"column:first_month_count"`
	SecondMonthCount int       `gorm:"column:second_month_count"`
	FirstMonthTotal  float64   `gorm:"column:first_month_total"`
	SecondMonthTotal float64   `gorm:"column:second_month_total"`
	Total            float64   `gorm:"column:total"`
	ClosedBy         string    `gorm:"column:closed_by"`
	ClosedAt         time.Time `gorm:"column:closed_at"`
}

func (payoutModel) TableName() string { return "commission_payouts" }

type ticketModel struct {
	TicketID    uuid.UUID  `gorm:"column:ticket_id;type:uuid;primaryKey"`
	Number      string     `gorm:"column:number"`
	PartnerID   uuid.UUID  `gorm:"column:partner_id"`
	Subject     string     `gorm:"column:subject"`
	Description string     `gorm:"column:description"`
	Category    string     `gorm:"column:category"`
	Priority    string     `gorm:"column:priority"`
	Status      string     `gorm:"column:status"`
	AssignedTo  string     `gorm:"column:assigned_to"`
	CreatedBy   string     `gorm:"column:created_by"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	ClosedAt    *time.Time `gorm:"column:closed_at"`
}

func (ticketModel) TableName() string { return "support_tickets" }

type ticketReplyModel struct {
	ReplyID    uuid.UUID `gorm:"column:reply_id;type:uuid;primaryKey"`
	TicketID   uuid.UUID `gorm:"column:ticket_id"`
	AuthorID   string    `gorm:"column:author_id"`
	AuthorRole string    `gorm:"column:author_role"`
	Body       string    `gorm:"column:body"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (ticketReplyModel) TableName() string { return "ticket_replies" }

type notificationModel struct {
	NotificationID  uuid.UUID  `gorm:"column:notification_id;type:uuid;primaryKey"`
	RecipientID     string     `gorm:"column:recipient_id"`
	Type            string     `gorm:"column:type"`
	Title           string     `gorm:"column:title"`
	Body            string     `gorm:"column:body"`
	Metadata        string     `gorm:"column:metadata;type:jsonb"`
	SourceEventType string     `gorm:"column:source_event_type"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	ReadAt          *time.Time `gorm:"column:read_at"`
}

func (notificationModel) TableName() string { return "notifications" }

type outboxModel struct {
	OutboxID         uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload;type:jsonb"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	TraceID          string     `gorm:"column:trace_id"`
	RetryCount       int        `gorm:"column:retry_count"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	FirstSeenAt      time.Time  `gorm:"column:first_seen_at"`
}

func (outboxModel) TableName() string { return "portal_outbox" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "portal_idempotency" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "portal_event_dedup" }
