package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/ports"
)

func (s *Service) CreateKit(ctx context.Context, actor Actor, input CreateKitInput) (domain.Kit, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Kit{}, err
	}
	if err := domain.ValidateKit(input.SKU, input.Name, input.UnitPrice, input.Quantity); err != nil {
		return domain.Kit{}, err
	}
	now := s.nowFn()
	kit := domain.Kit{
		KitID:     uuid.New(),
		SKU:       domain.NormalizeSKU(input.SKU),
		Name:      strings.TrimSpace(input.Name),
		UnitPrice: domain.RoundCurrency(input.UnitPrice, 2),
		Quantity:  input.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.kits.Create(ctx, kit); err != nil {
		return domain.Kit{}, err
	}
	return kit, nil
}

func (s *Service) GetKit(ctx context.Context, actor Actor, kitID string) (domain.Kit, error) {
	if err := requireActor(actor); err != nil {
		return domain.Kit{}, err
	}
	id, err := parseID("kit_id", kitID)
	if err != nil {
		return domain.Kit{}, err
	}
	return s.kits.Get(ctx, id)
}

func (s *Service) ListKits(ctx context.Context, actor Actor) ([]domain.Kit, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.kits.List(ctx)
}

func (s *Service) RestockKit(ctx context.Context, actor Actor, kitID string, input RestockKitInput) (domain.Kit, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Kit{}, err
	}
	id, err := parseID("kit_id", kitID)
	if err != nil {
		return domain.Kit{}, err
	}
	if err := domain.ValidateUnits(input.Quantity); err != nil {
		return domain.Kit{}, err
	}
	return s.kits.Restock(ctx, id, input.Quantity, s.nowFn())
}

// DistributeKits moves warehouse units to a partner. Warehouse quantity, the
// distributed counter and the partner's stock change together or not at all.
func (s *Service) DistributeKits(ctx context.Context, actor Actor, input DistributeKitsInput) (ports.DistributionResult, error) {
	if err := requireAdmin(actor); err != nil {
		return ports.DistributionResult{}, err
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return ports.DistributionResult{}, domain.ErrIdempotencyRequired
	}
	kitID, err := parseID("kit_id", input.KitID)
	if err != nil {
		return ports.DistributionResult{}, err
	}
	partnerID, err := parseID("partner_id", input.PartnerID)
	if err != nil {
		return ports.DistributionResult{}, err
	}
	if err := domain.ValidateUnits(input.Quantity); err != nil {
		return ports.DistributionResult{}, err
	}
	return withIdempotency(ctx, s, idempotencyScope(actor, "distribute_kits"), input, func() (ports.DistributionResult, error) {
		if _, err := s.requireActivePartner(ctx, partnerID); err != nil {
			return ports.DistributionResult{}, err
		}
		result, err := s.kits.Distribute(ctx, ports.DistributeKitsParams{
			DistributionID: uuid.New(),
			KitID:          kitID,
			PartnerID:      partnerID,
			Quantity:       input.Quantity,
			DistributedBy:  actor.SubjectID,
			At:             s.nowFn(),
		})
		if err != nil {
			return ports.DistributionResult{}, err
		}
		_ = s.enqueueEvent(ctx, actor, domain.EventKitDistributed, partnerID.String(), map[string]any{
			"distribution_id": result.Distribution.DistributionID.String(),
			"kit_id":          kitID.String(),
			"sku":             result.Kit.SKU,
			"partner_id":      partnerID.String(),
			"quantity":        input.Quantity,
			"partner_stock":   result.Stock.Quantity,
		})
		s.notify(ctx, []string{domain.PartnerRecipient(partnerID.String())}, "kits_distributed",
			"Kits received",
			fmt.Sprintf("%d unit(s) of %s were added to your stock.", input.Quantity, result.Kit.SKU),
			domain.EventKitDistributed,
			map[string]string{"kit_id": kitID.String(), "quantity": strconv.Itoa(input.Quantity)})
		return result, nil
	})
}

func (s *Service) ListPartnerStock(ctx context.Context, actor Actor, partnerID string) ([]domain.PartnerKitStock, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	id, err := resolvePartnerID(actor, partnerID)
	if err != nil {
		return nil, err
	}
	return s.kits.ListPartnerStock(ctx, id)
}
