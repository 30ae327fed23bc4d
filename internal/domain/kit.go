package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{1,39}$`)

type Kit struct {
	KitID       uuid.UUID `json:"kit_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	UnitPrice   float64   `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Distributed int       `json:"distributed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PartnerKitStock is the number of units of a kit currently held by a partner.
type PartnerKitStock struct {
	PartnerID uuid.UUID `json:"partner_id"`
	KitID     uuid.UUID `json:"kit_id"`
	SKU       string    `json:"sku,omitempty"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type KitDistribution struct {
	DistributionID uuid.UUID `json:"distribution_id"`
	KitID          uuid.UUID `json:"kit_id"`
	PartnerID      uuid.UUID `json:"partner_id"`
	Quantity       int       `json:"quantity"`
	DistributedBy  string    `json:"distributed_by"`
	DistributedAt  time.Time `json:"distributed_at"`
}

func NormalizeSKU(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

func ValidateKit(sku, name string, unitPrice float64, quantity int) error {
	if !skuPattern.MatchString(NormalizeSKU(sku)) {
		return fmt.Errorf("%w: sku must match %s", ErrInvalidInput, skuPattern.String())
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: kit name is required", ErrInvalidInput)
	}
	if unitPrice < 0 {
		return fmt.Errorf("%w: unit_price must be >= 0", ErrInvalidInput)
	}
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalidInput)
	}
	return nil
}

func ValidateUnits(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", ErrInvalidInput)
	}
	return nil
}
