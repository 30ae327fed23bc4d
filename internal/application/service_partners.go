package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
)

func (s *Service) CreatePartner(ctx context.Context, actor Actor, input CreatePartnerInput) (domain.Partner, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Partner{}, err
	}
	if err := domain.ValidatePartnerName(input.Name); err != nil {
		return domain.Partner{}, err
	}
	if err := domain.ValidateEmail(input.Email); err != nil {
		return domain.Partner{}, err
	}
	return withIdempotency(ctx, s, idempotencyScope(actor, "create_partner"), input, func() (domain.Partner, error) {
		now := s.nowFn()
		partner := domain.Partner{
			PartnerID: uuid.New(),
			Name:      strings.TrimSpace(input.Name),
			Email:     domain.NormalizeEmail(input.Email),
			Phone:     strings.TrimSpace(input.Phone),
			Region:    strings.TrimSpace(input.Region),
			Status:    domain.PartnerStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.partners.Create(ctx, partner); err != nil {
			return domain.Partner{}, err
		}
		_ = s.enqueueEvent(ctx, actor, domain.EventPartnerCreated, partner.PartnerID.String(), map[string]any{
			"partner_id": partner.PartnerID.String(),
			"name":       partner.Name,
			"region":     partner.Region,
		})
		return partner, nil
	})
}

func (s *Service) GetPartner(ctx context.Context, actor Actor, partnerID string) (domain.Partner, error) {
	id, err := parseID("partner_id", partnerID)
	if err != nil {
		return domain.Partner{}, err
	}
	if err := authorizePartner(actor, id); err != nil {
		return domain.Partner{}, err
	}
	return s.partners.Get(ctx, id)
}

func (s *Service) ListPartners(ctx context.Context, actor Actor, input ListInput) ([]domain.Partner, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if input.Status != "" {
		if _, err := domain.ParsePartnerStatus(input.Status); err != nil {
			return nil, err
		}
	}
	limit, offset := s.page(input.Limit, input.Offset)
	return s.partners.List(ctx, domain.PartnerFilter{
		Status: strings.ToLower(strings.TrimSpace(input.Status)),
		Query:  strings.TrimSpace(input.Query),
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Service) UpdatePartner(ctx context.Context, actor Actor, partnerID string, input UpdatePartnerInput) (domain.Partner, error) {
	id, err := parseID("partner_id", partnerID)
	if err != nil {
		return domain.Partner{}, err
	}
	if err := authorizePartner(actor, id); err != nil {
		return domain.Partner{}, err
	}
	if normalizeRole(actor.Role) == RoleAgent {
		return domain.Partner{}, domain.ErrForbidden
	}
	partner, err := s.partners.Get(ctx, id)
	if err != nil {
		return domain.Partner{}, err
	}
	if input.Name != nil {
		if err := domain.ValidatePartnerName(*input.Name); err != nil {
			return domain.Partner{}, err
		}
		partner.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		if err := domain.ValidateEmail(*input.Email); err != nil {
			return domain.Partner{}, err
		}
		partner.Email = domain.NormalizeEmail(*input.Email)
	}
	if input.Phone != nil {
		partner.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Region != nil {
		partner.Region = strings.TrimSpace(*input.Region)
	}
	partner.UpdatedAt = s.nowFn()
	if err := s.partners.Update(ctx, partner); err != nil {
		return domain.Partner{}, err
	}
	return partner, nil
}

// SetPartnerStatus suspends or reactivates a partner.
func (s *Service) SetPartnerStatus(ctx context.Context, actor Actor, partnerID, status string) (domain.Partner, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Partner{}, err
	}
	id, err := parseID("partner_id", partnerID)
	if err != nil {
		return domain.Partner{}, err
	}
	next, err := domain.ParsePartnerStatus(status)
	if err != nil {
		return domain.Partner{}, err
	}
	partner, err := s.partners.Get(ctx, id)
	if err != nil {
		return domain.Partner{}, err
	}
	if partner.Status == next {
		return partner, nil
	}
	previous := partner.Status
	partner.Status = next
	partner.UpdatedAt = s.nowFn()
	if err := s.partners.Update(ctx, partner); err != nil {
		return domain.Partner{}, err
	}
	_ = s.enqueueEvent(ctx, actor, domain.EventPartnerStatusChanged, partner.PartnerID.String(), map[string]any{
		"partner_id":      partner.PartnerID.String(),
		"previous_status": string(previous),
		"status":          string(next),
	})
	s.notify(ctx, []string{domain.PartnerRecipient(partner.PartnerID.String())}, "partner_status",
		"Account status changed", "Your partner account is now "+string(next)+".",
		domain.EventPartnerStatusChanged, map[string]string{"partner_id": partner.PartnerID.String()})
	return partner, nil
}

func (s *Service) requireActivePartner(ctx context.Context, partnerID uuid.UUID) (domain.Partner, error) {
	partner, err := s.partners.Get(ctx, partnerID)
	if err != nil {
		return domain.Partner{}, err
	}
	if !partner.IsActive() {
		return domain.Partner{}, domain.ErrPartnerSuspended
	}
	return partner, nil
}
