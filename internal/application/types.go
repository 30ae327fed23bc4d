package application

import (
	"time"

	"github.com/viralforge/partner-portal/internal/domain"
)

type Config struct {
	ServiceName        string
	DefaultCurrency    string
	DepreciationFactor float64
	StatementCacheTTL  time.Duration
	IdempotencyTTL     time.Duration
	EventDedupTTL      time.Duration
	DefaultPageSize    int
	MaxPageSize        int
}

const (
	RoleAdmin   = "admin"
	RolePartner = "partner"
	RoleAgent   = "agent"
	RoleSystem  = "system"
)

// Actor is the caller of a use case. PartnerID is set for partner users.
type Actor struct {
	SubjectID      string
	Role           string
	PartnerID      string
	RequestID      string
	IdempotencyKey string
}

type CreatePartnerInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Region string `json:"region,omitempty"`
}

type UpdatePartnerInput struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Region *string `json:"region,omitempty"`
}

type ListInput struct {
	PartnerID  string
	Status     string
	Query      string
	AssignedTo string
	From       string
	To         string
	UnreadOnly bool
	Limit      int
	Offset     int
}

type CreateLeadInput struct {
	PartnerID string `json:"partner_id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Source    string `json:"source,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type UpdateLeadStatusInput struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type ReassignLeadInput struct {
	PartnerID string `json:"partner_id"`
}

type CreateKitInput struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type RestockKitInput struct {
	Quantity int `json:"quantity"`
}

type DistributeKitsInput struct {
	KitID     string `json:"kit_id"`
	PartnerID string `json:"partner_id"`
	Quantity  int    `json:"quantity"`
}

type RecordSaleInput struct {
	PartnerID    string     `json:"partner_id,omitempty"`
	KitID        string     `json:"kit_id,omitempty"`
	LeadID       string     `json:"lead_id,omitempty"`
	ParentSaleID string     `json:"parent_sale_id,omitempty"`
	OrderRef     string     `json:"order_ref,omitempty"`
	Amount       float64    `json:"amount"`
	Currency     string     `json:"currency,omitempty"`
	Kind         string     `json:"kind,omitempty"`
	SoldAt       *time.Time `json:"sold_at,omitempty"`
}

type SlabInput struct {
	Name        string  `json:"name"`
	MinSales    int     `json:"min_sales"`
	MaxSales    int     `json:"max_sales"`
	RatePercent float64 `json:"rate_percent"`
}

type StatementQuery struct {
	PartnerID string
	From      string
	To        string
	AsOf      *time.Time
}

// SlabProgress tells a partner how far the current month is from the next slab.
type SlabProgress struct {
	Period          string          `json:"period"`
	FirstMonthCount int             `json:"first_month_count"`
	CurrentSlab     *domain.SlabRef `json:"current_slab,omitempty"`
	NextSlab        *domain.SlabRef `json:"next_slab,omitempty"`
	SalesNeeded     int             `json:"sales_needed,omitempty"`
}

type StatementResult struct {
	domain.CommissionStatement
	Progress *SlabProgress `json:"progress,omitempty"`
}

type CommissionReportRow struct {
	PartnerID        string  `json:"partner_id"`
	PartnerName      string  `json:"partner_name"`
	FirstMonthCount  int     `json:"first_month_count"`
	SecondMonthCount int     `json:"second_month_count"`
	FirstMonthTotal  float64 `json:"first_month_total"`
	SecondMonthTotal float64 `json:"second_month_total"`
	Total            float64 `json:"total"`
}

type CommissionReport struct {
	Period   string                `json:"period"`
	Currency string                `json:"currency"`
	Rows     []CommissionReportRow `json:"rows"`
	Total    float64               `json:"total"`
}

type CloseMonthResult struct {
	Period   string                    `json:"period"`
	Payouts  []domain.CommissionPayout `json:"payouts"`
	Created  int                       `json:"created"`
	Existing int                       `json:"existing"`
	Total    float64                   `json:"total"`
}

type CreateTicketInput struct {
	PartnerID   string `json:"partner_id,omitempty"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

type ReplyTicketInput struct {
	Body string `json:"body"`
}

type UpdateTicketStatusInput struct {
	Status string `json:"status"`
}

type AssignTicketInput struct {
	AssigneeID string `json:"assignee_id"`
}

type TicketDetail struct {
	Ticket  domain.Ticket        `json:"ticket"`
	Replies []domain.TicketReply `json:"replies"`
}
