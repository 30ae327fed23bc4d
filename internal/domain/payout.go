package domain

import (
	"time"

	"github.com/google/uuid"
)

// CommissionPayout is the frozen commission of one partner for a closed month.
type CommissionPayout struct {
	PayoutID         uuid.UUID `json:"payout_id"`
	PartnerID        uuid.UUID `json:"partner_id"`
	Period           string    `json:"period"`
	Currency         string    `json:"currency"`
	FirstMonthCount  int       `json:"first_month_count"`
	SecondMonthCount int       `json:"second_month_count"`
	FirstMonthTotal  float64   `json:"first_month_total"`
	SecondMonthTotal float64   `json:"second_month_total"`
	Total            float64   `json:"total"`
	ClosedBy         string    `json:"closed_by"`
	ClosedAt         time.Time `json:"closed_at"`
}

func PayoutFromPeriod(partnerID uuid.UUID, currency string, pc PeriodCommission, closedBy string, at time.Time) CommissionPayout {
	return CommissionPayout{
		PayoutID:         uuid.New(),
		PartnerID:        partnerID,
		Period:           pc.Period,
		Currency:         currency,
		FirstMonthCount:  pc.FirstMonthCount,
		SecondMonthCount: pc.SecondMonthCount,
		FirstMonthTotal:  pc.FirstMonthTotal,
		SecondMonthTotal: pc.SecondMonthTotal,
		Total:            pc.Total,
		ClosedBy:         closedBy,
		ClosedAt:         at,
	}
}
