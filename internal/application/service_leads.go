package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
)

func (s *Service) CreateLead(ctx context.Context, actor Actor, input CreateLeadInput) (domain.Lead, error) {
	if err := requireActor(actor); err != nil {
		return domain.Lead{}, err
	}
	partnerID, err := resolvePartnerID(actor, input.PartnerID)
	if err != nil {
		return domain.Lead{}, err
	}
	if err := domain.ValidateLeadName(input.Name); err != nil {
		return domain.Lead{}, err
	}
	if strings.TrimSpace(input.Email) != "" {
		if err := domain.ValidateEmail(input.Email); err != nil {
			return domain.Lead{}, err
		}
	}
	if _, err := s.partners.Get(ctx, partnerID); err != nil {
		return domain.Lead{}, err
	}
	return withIdempotency(ctx, s, idempotencyScope(actor, "create_lead"), input, func() (domain.Lead, error) {
		now := s.nowFn()
		lead := domain.Lead{
			LeadID:    uuid.New(),
			PartnerID: partnerID,
			Name:      strings.TrimSpace(input.Name),
			Email:     domain.NormalizeEmail(input.Email),
			Phone:     strings.TrimSpace(input.Phone),
			Source:    strings.TrimSpace(input.Source),
			Notes:     strings.TrimSpace(input.Notes),
			Status:    domain.LeadStatusNew,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.leads.Create(ctx, lead); err != nil {
			return domain.Lead{}, err
		}
		_ = s.enqueueEvent(ctx, actor, domain.EventLeadCreated, partnerID.String(), map[string]any{
			"lead_id":    lead.LeadID.String(),
			"partner_id": partnerID.String(),
			"source":     lead.Source,
		})
		return lead, nil
	})
}

func (s *Service) GetLead(ctx context.Context, actor Actor, leadID string) (domain.Lead, error) {
	id, err := parseID("lead_id", leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.Lead{}, err
	}
	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if err := authorizePartner(actor, lead.PartnerID); err != nil {
		// do not reveal leads owned by someone else
		return domain.Lead{}, domain.ErrNotFound
	}
	return lead, nil
}

func (s *Service) ListLeads(ctx context.Context, actor Actor, input ListInput) ([]domain.Lead, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter := domain.LeadFilter{}
	if isStaff(actor) {
		id, err := parseOptionalID("partner_id", input.PartnerID)
		if err != nil {
			return nil, err
		}
		filter.PartnerID = id
	} else {
		id, err := resolvePartnerID(actor, input.PartnerID)
		if err != nil {
			return nil, err
		}
		filter.PartnerID = &id
	}
	if input.Status != "" {
		status, err := domain.ParseLeadStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = string(status)
	}
	filter.Limit, filter.Offset = s.page(input.Limit, input.Offset)
	return s.leads.List(ctx, filter)
}

func (s *Service) UpdateLeadStatus(ctx context.Context, actor Actor, leadID string, input UpdateLeadStatusInput) (domain.Lead, error) {
	lead, err := s.GetLead(ctx, actor, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	next, err := domain.ParseLeadStatus(input.Status)
	if err != nil {
		return domain.Lead{}, err
	}
	if next == domain.LeadStatusConverted && lead.Status != domain.LeadStatusConverted {
		return domain.Lead{}, fmt.Errorf("%w: leads are converted by recording a sale", domain.ErrInvalidInput)
	}
	previous := lead.Status
	if err := lead.TransitionTo(next, s.nowFn()); err != nil {
		return domain.Lead{}, err
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		lead.Notes = notes
		lead.UpdatedAt = s.nowFn()
	}
	if previous == lead.Status && strings.TrimSpace(input.Notes) == "" {
		return lead, nil
	}
	if err := s.leads.Update(ctx, lead); err != nil {
		return domain.Lead{}, err
	}
	if previous != lead.Status {
		_ = s.enqueueEvent(ctx, actor, domain.EventLeadStatusChanged, lead.PartnerID.String(), map[string]any{
			"lead_id":         lead.LeadID.String(),
			"partner_id":      lead.PartnerID.String(),
			"previous_status": string(previous),
			"status":          string(lead.Status),
		})
	}
	return lead, nil
}

// ReassignLead moves an open lead to another active partner.
func (s *Service) ReassignLead(ctx context.Context, actor Actor, leadID string, input ReassignLeadInput) (domain.Lead, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Lead{}, err
	}
	id, err := parseID("lead_id", leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	target, err := parseID("partner_id", input.PartnerID)
	if err != nil {
		return domain.Lead{}, err
	}
	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.Status.IsTerminal() {
		return domain.Lead{}, fmt.Errorf("%w: lead is %s", domain.ErrInvalidTransition, lead.Status)
	}
	if lead.PartnerID == target {
		return lead, nil
	}
	if _, err := s.requireActivePartner(ctx, target); err != nil {
		return domain.Lead{}, err
	}
	previous := lead.PartnerID
	lead.PartnerID = target
	lead.UpdatedAt = s.nowFn()
	if err := s.leads.Update(ctx, lead); err != nil {
		return domain.Lead{}, err
	}
	_ = s.enqueueEvent(ctx, actor, domain.EventLeadReassigned, target.String(), map[string]any{
		"lead_id":             lead.LeadID.String(),
		"partner_id":          target.String(),
		"previous_partner_id": previous.String(),
	})
	meta := map[string]string{"lead_id": lead.LeadID.String()}
	s.notify(ctx, []string{domain.PartnerRecipient(target.String())}, "lead_assigned",
		"New lead assigned", "Lead "+lead.Name+" has been assigned to you.", domain.EventLeadReassigned, meta)
	s.notify(ctx, []string{domain.PartnerRecipient(previous.String())}, "lead_unassigned",
		"Lead reassigned", "Lead "+lead.Name+" has been moved to another partner.", domain.EventLeadReassigned, meta)
	return lead, nil
}
