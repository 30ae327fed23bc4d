package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SaleKind string

const (
	SaleKindNew     SaleKind = "new"
	SaleKindRenewal SaleKind = "renewal"
)

type SaleStatus string

const (
	SaleStatusActive    SaleStatus = "active"
	SaleStatusCancelled SaleStatus = "cancelled"
)

type Sale struct {
	SaleID       uuid.UUID  `json:"sale_id"`
	PartnerID    uuid.UUID  `json:"partner_id"`
	LeadID       *uuid.UUID `json:"lead_id,omitempty"`
	KitID        uuid.UUID  `json:"kit_id"`
	ParentSaleID *uuid.UUID `json:"parent_sale_id,omitempty"`
	OrderRef     string     `json:"order_ref,omitempty"`
	Amount       float64    `json:"amount"`
	Currency     string     `json:"currency"`
	Kind         SaleKind   `json:"kind"`
	Status       SaleStatus `json:"status"`
	SoldAt       time.Time  `json:"sold_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type SaleFilter struct {
	PartnerID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

func (s Sale) IsCancelled() bool { return s.Status == SaleStatusCancelled }

// ActiveAt reports whether the sale had not been cancelled by the given instant.
func (s Sale) ActiveAt(at time.Time) bool {
	if s.CancelledAt == nil {
		return true
	}
	return s.CancelledAt.After(at)
}

func ParseSaleKind(v string) (SaleKind, error) {
	switch SaleKind(strings.ToLower(strings.TrimSpace(v))) {
	case "", SaleKindNew:
		return SaleKindNew, nil
	case SaleKindRenewal:
		return SaleKindRenewal, nil
	default:
		return "", fmt.Errorf("%w: unknown sale kind %q", ErrInvalidInput, v)
	}
}

func ValidateSaleAmount(amount float64, currency string) error {
	if amount < 0 {
		return fmt.Errorf("%w: amount must be >= 0", ErrInvalidInput)
	}
	if len(strings.TrimSpace(currency)) != 3 {
		return fmt.Errorf("%w: currency must be an ISO-4217 code", ErrInvalidInput)
	}
	return nil
}
