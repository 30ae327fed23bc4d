package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CommissionSlab maps a range of eligible sale counts to a commission rate.
// MinSales is inclusive, MaxSales exclusive; MaxSales == 0 leaves the range open.
type CommissionSlab struct {
	SlabID      uuid.UUID `json:"slab_id"`
	Name        string    `json:"name"`
	MinSales    int       `json:"min_sales"`
	MaxSales    int       `json:"max_sales"`
	RatePercent float64   `json:"rate_percent"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s CommissionSlab) Contains(count int) bool {
	if count < s.MinSales {
		return false
	}
	return s.MaxSales == 0 || count < s.MaxSales
}

func (s CommissionSlab) OpenEnded() bool { return s.MaxSales == 0 }

func (s CommissionSlab) SameRange(o CommissionSlab) bool {
	return s.MinSales == o.MinSales && s.MaxSales == o.MaxSales
}

func ValidateSlab(name string, minSales, maxSales int, rate float64) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: slab name is required", ErrInvalidInput)
	}
	if minSales < 0 {
		return fmt.Errorf("%w: min_sales must be >= 0", ErrInvalidInput)
	}
	if maxSales != 0 && maxSales <= minSales {
		return fmt.Errorf("%w: max_sales must be 0 (open) or greater than min_sales", ErrInvalidInput)
	}
	if rate < 0 || rate > 100 {
		return fmt.Errorf("%w: rate_percent must be within [0,100]", ErrInvalidInput)
	}
	return nil
}
