package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"gorm.io/gorm"
)

type slabRepository struct {
	db *gorm.DB
}

func (r *slabRepository) Create(ctx context.Context, slab domain.CommissionSlab) error {
	row := slabModel{
		SlabID:      slab.SlabID,
		Name:        slab.Name,
		MinSales:    slab.MinSales,
		MaxSales:    slab.MaxSales,
		RatePercent: slab.RatePercent,
		CreatedAt:   slab.CreatedAt,
		UpdatedAt:   slab.UpdatedAt,
	}
	return translateWrite(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *slabRepository) Get(ctx context.Context, slabID uuid.UUID) (domain.CommissionSlab, error) {
	var row slabModel
	if err := r.db.WithContext(ctx).Where("slab_id = ?", slabID).Take(&row).Error; err != nil {
		return domain.CommissionSlab{}, notFound(err)
	}
	return toDomainSlab(row), nil
}

func (r *slabRepository) Update(ctx context.Context, slab domain.CommissionSlab) error {
	res := r.db.WithContext(ctx).
		Model(&slabModel{}).
		Where("slab_id = ?", slab.SlabID).
		Updates(map[string]any{
			"name":         slab.Name,
			"min_sales":    slab.MinSales,
			"max_sales":    slab.MaxSales,
			"rate_percent": slab.RatePercent,
			"updated_at":   slab.UpdatedAt,
		})
	if res.Error != nil {
		return translateWrite(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *slabRepository) Delete(ctx context.Context, slabID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("slab_id = ?", slabID).Delete(&slabModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *slabRepository) List(ctx context.Context) ([]domain.CommissionSlab, error) {
	var rows []slabModel
	if err := r.db.WithContext(ctx).Order("slab_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CommissionSlab, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSlab(row))
	}
	return out, nil
}
