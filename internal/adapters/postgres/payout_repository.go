package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type payoutRepository struct {
	db *gorm.DB
}

func (r *payoutRepository) CreateIfAbsent(ctx context.Context, payout domain.CommissionPayout) (domain.CommissionPayout, bool, error) {
	row := payoutModel{
		PayoutID:         payout.PayoutID,
		PartnerID:        payout.PartnerID,
		Period:           payout.Period,
		Currency:         payout.Currency,
		FirstMonthCount:  payout.FirstMonthCount,
		SecondMonthCount: payout.SecondMonthCount,
		FirstMonthTotal:  payout.FirstMonthTotal,
		SecondMonthTotal: payout.SecondMonthTotal,
		Total:            payout.Total,
		ClosedBy:         payout.ClosedBy,
		ClosedAt:         payout.ClosedAt,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "partner_id"}, {Name: "period"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		return domain.CommissionPayout{}, false, res.Error
	}
	if res.RowsAffected > 0 {
		return payout, true, nil
	}
	var existing payoutModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ? AND period = ?", payout.PartnerID, payout.Period).
		Take(&existing).Error; err != nil {
		return domain.CommissionPayout{}, false, notFound(err)
	}
	return toDomainPayout(existing), false, nil
}

func (r *payoutRepository) ListByPeriod(ctx context.Context, period string) ([]domain.CommissionPayout, error) {
	var rows []payoutModel
	if err := r.db.WithContext(ctx).Where("period = ?", period).Order("partner_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainPayouts(rows), nil
}

func (r *payoutRepository) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]domain.CommissionPayout, error) {
	var rows []payoutModel
	if err := r.db.WithContext(ctx).Where("partner_id = ?", partnerID).Order("period DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainPayouts(rows), nil
}

func toDomainPayouts(rows []payoutModel) []domain.CommissionPayout {
	out := make([]domain.CommissionPayout, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainPayout(row))
	}
	return out
}
