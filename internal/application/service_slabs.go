package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
)

func (s *Service) CreateSlab(ctx context.Context, actor Actor, input SlabInput) (domain.CommissionSlab, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.CommissionSlab{}, err
	}
	if err := domain.ValidateSlab(input.Name, input.MinSales, input.MaxSales, input.RatePercent); err != nil {
		return domain.CommissionSlab{}, err
	}
	now := s.nowFn()
	slab := domain.CommissionSlab{
		SlabID:      uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		MinSales:    input.MinSales,
		MaxSales:    input.MaxSales,
		RatePercent: input.RatePercent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.checkSlabRange(ctx, slab); err != nil {
		return domain.CommissionSlab{}, err
	}
	if err := s.slabs.Create(ctx, slab); err != nil {
		return domain.CommissionSlab{}, err
	}
	s.invalidateAllStatements(ctx)
	return slab, nil
}

// ListSlabs returns slabs ordered by lower bound.
func (s *Service) ListSlabs(ctx context.Context, actor Actor) ([]domain.CommissionSlab, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	slabs, err := s.slabs.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(slabs, func(i, j int) bool {
		if slabs[i].MinSales != slabs[j].MinSales {
			return slabs[i].MinSales < slabs[j].MinSales
		}
		return slabs[i].SlabID.String() < slabs[j].SlabID.String()
	})
	return slabs, nil
}

func (s *Service) UpdateSlab(ctx context.Context, actor Actor, slabID string, input SlabInput) (domain.CommissionSlab, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.CommissionSlab{}, err
	}
	id, err := parseID("slab_id", slabID)
	if err != nil {
		return domain.CommissionSlab{}, err
	}
	if err := domain.ValidateSlab(input.Name, input.MinSales, input.MaxSales, input.RatePercent); err != nil {
		return domain.CommissionSlab{}, err
	}
	slab, err := s.slabs.Get(ctx, id)
	if err != nil {
		return domain.CommissionSlab{}, err
	}
	slab.Name = strings.TrimSpace(input.Name)
	slab.MinSales = input.MinSales
	slab.MaxSales = input.MaxSales
	slab.RatePercent = input.RatePercent
	slab.UpdatedAt = s.nowFn()
	if err := s.checkSlabRange(ctx, slab); err != nil {
		return domain.CommissionSlab{}, err
	}
	if err := s.slabs.Update(ctx, slab); err != nil {
		return domain.CommissionSlab{}, err
	}
	s.invalidateAllStatements(ctx)
	return slab, nil
}

func (s *Service) DeleteSlab(ctx context.Context, actor Actor, slabID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	id, err := parseID("slab_id", slabID)
	if err != nil {
		return err
	}
	if err := s.slabs.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateAllStatements(ctx)
	return nil
}

func (s *Service) checkSlabRange(ctx context.Context, candidate domain.CommissionSlab) error {
	existing, err := s.slabs.List(ctx)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.SlabID == candidate.SlabID {
			continue
		}
		if other.SameRange(candidate) {
			return fmt.Errorf("%w: slab %q already covers %d-%d", domain.ErrConflict, other.Name, other.MinSales, other.MaxSales)
		}
	}
	return nil
}
