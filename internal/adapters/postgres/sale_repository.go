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

type saleRepository struct {
	db *gorm.DB
}

func (r *saleRepository) Record(ctx context.Context, params ports.RecordSaleParams) (domain.Sale, error) {
	sale := params.Sale
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lead leadModel
		if params.ConvertLead {
			if sale.LeadID == nil {
				return domain.ErrInvalidInput
			}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("lead_id = ?", *sale.LeadID).
				Take(&lead).Error; err != nil {
				return notFound(err)
			}
			if domain.LeadStatus(lead.Status).IsTerminal() {
				return domain.ErrConflict
			}
		}

		if params.ConsumeStock {
			res := tx.Model(&partnerKitStockModel{}).
				Where("partner_id = ? AND kit_id = ? AND quantity >= 1", sale.PartnerID, sale.KitID).
				Updates(map[string]any{
					"quantity":   gorm.Expr("quantity - 1"),
					"updated_at": sale.CreatedAt,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrInsufficientStock
			}
		}

		row := fromDomainSale(sale)
		if err := tx.Create(&row).Error; err != nil {
			return translateWrite(err)
		}

		if params.ConvertLead {
			saleID := sale.SaleID
			if err := tx.Model(&leadModel{}).
				Where("lead_id = ?", lead.LeadID).
				Updates(map[string]any{
					"status":            string(domain.LeadStatusConverted),
					"converted_sale_id": saleID,
					"updated_at":        sale.CreatedAt,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

func (r *saleRepository) Get(ctx context.Context, saleID uuid.UUID) (domain.Sale, error) {
	var row saleModel
	if err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Take(&row).Error; err != nil {
		return domain.Sale{}, notFound(err)
	}
	return toDomainSale(row), nil
}

func (r *saleRepository) Cancel(ctx context.Context, saleID uuid.UUID, at time.Time) (domain.Sale, error) {
	var out domain.Sale
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&saleModel{}).
			Where("sale_id = ? AND status <> ?", saleID, string(domain.SaleStatusCancelled)).
			Updates(map[string]any{
				"status":       string(domain.SaleStatusCancelled),
				"cancelled_at": at,
			}).Error; err != nil {
			return err
		}
		var row saleModel
		if err := tx.Where("sale_id = ?", saleID).Take(&row).Error; err != nil {
			return notFound(err)
		}
		out = toDomainSale(row)
		return nil
	})
	return out, err
}

func (r *saleRepository) List(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	q := r.db.WithContext(ctx).Model(&saleModel{})
	if filter.PartnerID != nil {
		q = q.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.From != nil {
		q = q.Where("sold_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("sold_at < ?", *filter.To)
	}
	var rows []saleModel
	if err := page(q.Order("sold_at DESC, created_at ASC"), filter.Limit, filter.Offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSales(rows), nil
}

func (r *saleRepository) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]domain.Sale, error) {
	var rows []saleModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at ASC, sale_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSales(rows), nil
}

func toDomainSales(rows []saleModel) []domain.Sale {
	out := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSale(row))
	}
	return out
}
