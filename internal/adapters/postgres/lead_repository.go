package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"gorm.io/gorm"
)

type leadRepository struct {
	db *gorm.DB
}

func (r *leadRepository) Create(ctx context.Context, lead domain.Lead) error {
	row := fromDomainLead(lead)
	return translateWrite(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *leadRepository) Get(ctx context.Context, leadID uuid.UUID) (domain.Lead, error) {
	var row leadModel
	if err := r.db.WithContext(ctx).Where("lead_id = ?", leadID).Take(&row).Error; err != nil {
		return domain.Lead{}, notFound(err)
	}
	return toDomainLead(row), nil
}

func (r *leadRepository) Update(ctx context.Context, lead domain.Lead) error {
	res := r.db.WithContext(ctx).
		Model(&leadModel{}).
		Where("lead_id = ?", lead.LeadID).
		Updates(map[string]any{
			"partner_id":        lead.PartnerID,
			"name":              lead.Name,
			"email":             lead.Email,
			"phone":             lead.Phone,
			"source":            lead.Source,
			"status":            string(lead.Status),
			"notes":             lead.Notes,
			"converted_sale_id": lead.ConvertedSaleID,
			"updated_at":        lead.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *leadRepository) List(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	q := r.db.WithContext(ctx).Model(&leadModel{})
	if filter.PartnerID != nil {
		q = q.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var rows []leadModel
	if err := page(q.Order("created_at DESC, lead_id ASC"), filter.Limit, filter.Offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Lead, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainLead(row))
	}
	return out, nil
}
