package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type kitRepository struct {
	db *gorm.DB
}

func (r *kitRepository) Create(ctx context.Context, kit domain.Kit) error {
	row := kitModel{
		KitID:       kit.KitID,
		SKU:         kit.SKU,
		Name:        kit.Name,
		UnitPrice:   kit.UnitPrice,
		Quantity:    kit.Quantity,
		Distributed: kit.Distributed,
		CreatedAt:   kit.CreatedAt,
		UpdatedAt:   kit.UpdatedAt,
	}
	return translateWrite(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *kitRepository) Get(ctx context.Context, kitID uuid.UUID) (domain.Kit, error) {
	return getKit(r.db.WithContext(ctx), kitID)
}

func getKit(tx *gorm.DB, kitID uuid.UUID) (domain.Kit, error) {
	var row kitModel
	if err := tx.Where("kit_id = ?", kitID).Take(&row).Error; err != nil {
		return domain.Kit{}, notFound(err)
	}
	return toDomainKit(row), nil
}

func (r *kitRepository) List(ctx context.Context) ([]domain.Kit, error) {
	var rows []kitModel
	if err := r.db.WithContext(ctx).Order("sku ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Kit, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainKit(row))
	}
	return out, nil
}

func (r *kitRepository) Restock(ctx context.Context, kitID uuid.UUID, quantity int, at time.Time) (domain.Kit, error) {
	var out domain.Kit
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&kitModel{}).
			Where("kit_id = ?", kitID).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity + ?", quantity),
				"updated_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		kit, err := getKit(tx, kitID)
		if err != nil {
			return err
		}
		out = kit
		return nil
	})
	return out, err
}

func (r *kitRepository) Distribute(ctx context.Context, params ports.DistributeKitsParams) (ports.DistributionResult, error) {
	var result ports.DistributionResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var partnerCount int64
		if err := tx.Model(&partnerModel{}).Where("partner_id = ?", params.PartnerID).Count(&partnerCount).Error; err != nil {
			return err
		}
		if partnerCount == 0 {
			return domain.ErrNotFound
		}

		res := tx.Model(&kitModel{}).
			Where("kit_id = ? AND quantity >= ?", params.KitID, params.Quantity).
			Updates(map[string]any{
				"quantity":    gorm.Expr("quantity - ?", params.Quantity),
				"distributed": gorm.Expr("distributed + ?", params.Quantity),
				"updated_at":  params.At,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if _, err := getKit(tx, params.KitID); err != nil {
				return err
			}
			return domain.ErrInsufficientStock
		}

		stock := partnerKitStockModel{
			PartnerID: params.PartnerID,
			KitID:     params.KitID,
			Quantity:  params.Quantity,
			UpdatedAt: params.At,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "partner_id"}, {Name: "kit_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("partner_kit_stock.quantity + ?", params.Quantity),
				"updated_at": params.At,
			}),
		}).Create(&stock).Error; err != nil {
			return err
		}

		dist := kitDistributionModel{
			DistributionID: params.DistributionID,
			KitID:          params.KitID,
			PartnerID:      params.PartnerID,
			Quantity:       params.Quantity,
			DistributedBy:  params.DistributedBy,
			DistributedAt:  params.At,
		}
		if err := tx.Create(&dist).Error; err != nil {
			return translateWrite(err)
		}

		kit, err := getKit(tx, params.KitID)
		if err != nil {
			return err
		}
		var current partnerKitStockModel
		if err := tx.Where("partner_id = ? AND kit_id = ?", params.PartnerID, params.KitID).Take(&current).Error; err != nil {
			return err
		}
		result = ports.DistributionResult{
			Kit: kit,
			Stock: domain.PartnerKitStock{
				PartnerID: current.PartnerID,
				KitID:     current.KitID,
				SKU:       kit.SKU,
				Quantity:  current.Quantity,
				UpdatedAt: current.UpdatedAt,
			},
			Distribution: domain.KitDistribution{
				DistributionID: dist.DistributionID,
				KitID:          dist.KitID,
				PartnerID:      dist.PartnerID,
				Quantity:       dist.Quantity,
				DistributedBy:  dist.DistributedBy,
				DistributedAt:  dist.DistributedAt,
			},
		}
		return nil
	})
	if err != nil {
		return ports.DistributionResult{}, err
	}
	return result, nil
}

func (r *kitRepository) ListPartnerStock(ctx context.Context, partnerID uuid.UUID) ([]domain.PartnerKitStock, error) {
	var rows []partnerKitStockRow
	err := r.db.WithContext(ctx).
		Table("partner_kit_stock AS s").
		Select("s.partner_id, s.kit_id, k.sku, s.quantity, s.updated_at").
		Joins("JOIN kits k ON k.kit_id = s.kit_id").
		Where("s.partner_id = ?", partnerID).
		Order("k.sku ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.PartnerKitStock, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.PartnerKitStock{
			PartnerID: row.PartnerID,
			KitID:     row.KitID,
			SKU:       row.SKU,
			Quantity:  row.Quantity,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}
