package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"gorm.io/gorm"
)

type partnerRepository struct {
	db *gorm.DB
}

func (r *partnerRepository) Create(ctx context.Context, partner domain.Partner) error {
	row := fromDomainPartner(partner)
	return translateWrite(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *partnerRepository) Get(ctx context.Context, partnerID uuid.UUID) (domain.Partner, error) {
	var row partnerModel
	if err := r.db.WithContext(ctx).Where("partner_id = ?", partnerID).Take(&row).Error; err != nil {
		return domain.Partner{}, notFound(err)
	}
	return toDomainPartner(row), nil
}

func (r *partnerRepository) Update(ctx context.Context, partner domain.Partner) error {
	res := r.db.WithContext(ctx).
		Model(&partnerModel{}).
		Where("partner_id = ?", partner.PartnerID).
		Updates(map[string]any{
			"name":       partner.Name,
			"email":      partner.Email,
			"phone":      partner.Phone,
			"region":     partner.Region,
			"status":     string(partner.Status),
			"updated_at": partner.UpdatedAt,
		})
	if res.Error != nil {
		return translateWrite(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *partnerRepository) List(ctx context.Context, filter domain.PartnerFilter) ([]domain.Partner, error) {
	q := r.db.WithContext(ctx).Model(&partnerModel{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if query := strings.ToLower(strings.TrimSpace(filter.Query)); query != "" {
		like := "%" + query + "%"
		q = q.Where("(lower(name) LIKE ? OR email LIKE ?)", like, like)
	}
	var rows []partnerModel
	if err := page(q.Order("created_at ASC, partner_id ASC"), filter.Limit, filter.Offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Partner, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainPartner(row))
	}
	return out, nil
}
