package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/observability"
	"github.com/viralforge/partner-portal/internal/ports"
)

// RecordSale books a sale for a partner. A new sale consumes one unit of the partner's
// kit stock; a renewal extends an active earlier sale and consumes nothing. A linked
// lead is converted in the same write.
func (s *Service) RecordSale(ctx context.Context, actor Actor, input RecordSaleInput) (domain.Sale, error) {
	if err := requireActor(actor); err != nil {
		return domain.Sale{}, err
	}
	if normalizeRole(actor.Role) == RoleAgent {
		return domain.Sale{}, domain.ErrForbidden
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return domain.Sale{}, domain.ErrIdempotencyRequired
	}
	partnerID, err := resolvePartnerID(actor, input.PartnerID)
	if err != nil {
		return domain.Sale{}, err
	}
	return withIdempotency(ctx, s, idempotencyScope(actor, "record_sale"), input, func() (domain.Sale, error) {
		return s.recordSale(ctx, actor, partnerID, input, "api")
	})
}

func (s *Service) recordSale(ctx context.Context, actor Actor, partnerID uuid.UUID, input RecordSaleInput, origin string) (domain.Sale, error) {
	kind, err := domain.ParseSaleKind(input.Kind)
	if err != nil {
		return domain.Sale{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if err := domain.ValidateSaleAmount(input.Amount, currency); err != nil {
		return domain.Sale{}, err
	}
	now := s.nowFn()
	soldAt := now
	if input.SoldAt != nil && !input.SoldAt.IsZero() {
		soldAt = input.SoldAt.UTC()
		if soldAt.After(now) {
			return domain.Sale{}, fmt.Errorf("%w: sold_at is in the future", domain.ErrInvalidInput)
		}
	}
	if _, err := s.requireActivePartner(ctx, partnerID); err != nil {
		return domain.Sale{}, err
	}

	sale := domain.Sale{
		SaleID:    uuid.New(),
		PartnerID: partnerID,
		OrderRef:  strings.TrimSpace(input.OrderRef),
		Amount:    domain.RoundCurrency(input.Amount, 2),
		Currency:  currency,
		Kind:      kind,
		Status:    domain.SaleStatusActive,
		SoldAt:    soldAt,
		CreatedAt: now,
	}

	switch kind {
	case domain.SaleKindRenewal:
		parentID, err := parseID("parent_sale_id", input.ParentSaleID)
		if err != nil {
			return domain.Sale{}, err
		}
		parent, err := s.sales.Get(ctx, parentID)
		if err != nil {
			return domain.Sale{}, err
		}
		if parent.PartnerID != partnerID {
			return domain.Sale{}, fmt.Errorf("%w: parent sale belongs to another partner", domain.ErrInvalidInput)
		}
		if parent.IsCancelled() {
			return domain.Sale{}, fmt.Errorf("%w: parent sale is cancelled", domain.ErrConflict)
		}
		sale.ParentSaleID = &parent.SaleID
		sale.KitID = parent.KitID
		if strings.TrimSpace(input.KitID) != "" {
			kitID, err := parseID("kit_id", input.KitID)
			if err != nil {
				return domain.Sale{}, err
			}
			sale.KitID = kitID
		}
	default:
		if strings.TrimSpace(input.ParentSaleID) != "" {
			return domain.Sale{}, fmt.Errorf("%w: parent_sale_id is only valid for renewals", domain.ErrInvalidInput)
		}
		kitID, err := parseID("kit_id", input.KitID)
		if err != nil {
			return domain.Sale{}, err
		}
		sale.KitID = kitID
	}
	if _, err := s.kits.Get(ctx, sale.KitID); err != nil {
		return domain.Sale{}, err
	}

	convertLead := false
	if leadID, err := parseOptionalID("lead_id", input.LeadID); err != nil {
		return domain.Sale{}, err
	} else if leadID != nil {
		lead, err := s.leads.Get(ctx, *leadID)
		if err != nil {
			return domain.Sale{}, err
		}
		if lead.PartnerID != partnerID {
			return domain.Sale{}, fmt.Errorf("%w: lead belongs to another partner", domain.ErrInvalidInput)
		}
		if lead.Status == domain.LeadStatusConverted {
			return domain.Sale{}, fmt.Errorf("%w: lead already converted", domain.ErrConflict)
		}
		if !domain.CanTransitionLead(lead.Status, domain.LeadStatusConverted) {
			return domain.Sale{}, fmt.Errorf("%w: lead is %s", domain.ErrInvalidTransition, lead.Status)
		}
		sale.LeadID = leadID
		convertLead = true
	}

	recorded, err := s.sales.Record(ctx, ports.RecordSaleParams{
		Sale:         sale,
		ConsumeStock: kind == domain.SaleKindNew,
		ConvertLead:  convertLead,
	})
	if err != nil {
		return domain.Sale{}, err
	}
	s.invalidatePartnerStatements(ctx, partnerID)
	observability.RecordSale(string(kind), origin)

	data := map[string]any{
		"sale_id":    recorded.SaleID.String(),
		"partner_id": partnerID.String(),
		"kit_id":     recorded.KitID.String(),
		"amount":     recorded.Amount,
		"currency":   recorded.Currency,
		"kind":       string(recorded.Kind),
		"sold_at":    recorded.SoldAt.Format(time.RFC3339),
	}
	if recorded.LeadID != nil {
		data["lead_id"] = recorded.LeadID.String()
	}
	if recorded.ParentSaleID != nil {
		data["parent_sale_id"] = recorded.ParentSaleID.String()
	}
	_ = s.enqueueEvent(ctx, actor, domain.EventSaleRecorded, partnerID.String(), data)
	s.notify(ctx, []string{domain.PartnerRecipient(partnerID.String())}, "sale_recorded", "Sale recorded",
		fmt.Sprintf("A %s sale of %.2f %s was recorded.", recorded.Kind, recorded.Amount, recorded.Currency),
		domain.EventSaleRecorded, map[string]string{"sale_id": recorded.SaleID.String()})
	return recorded, nil
}

func (s *Service) GetSale(ctx context.Context, actor Actor, saleID string) (domain.Sale, error) {
	if err := requireActor(actor); err != nil {
		return domain.Sale{}, err
	}
	id, err := parseID("sale_id", saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	sale, err := s.sales.Get(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if err := authorizePartner(actor, sale.PartnerID); err != nil {
		return domain.Sale{}, domain.ErrNotFound
	}
	return sale, nil
}

// CancelSale marks a sale cancelled. Stock is not returned; commission is
// recomputed from history on the next statement.
func (s *Service) CancelSale(ctx context.Context, actor Actor, saleID string) (domain.Sale, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Sale{}, err
	}
	id, err := parseID("sale_id", saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	current, err := s.sales.Get(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if current.IsCancelled() {
		return current, nil
	}
	cancelled, err := s.sales.Cancel(ctx, id, s.nowFn())
	if err != nil {
		return domain.Sale{}, err
	}
	s.invalidatePartnerStatements(ctx, cancelled.PartnerID)
	_ = s.enqueueEvent(ctx, actor, domain.EventSaleCancelled, cancelled.PartnerID.String(), map[string]any{
		"sale_id":      cancelled.SaleID.String(),
		"partner_id":   cancelled.PartnerID.String(),
		"cancelled_at": s.nowFn().Format(time.RFC3339),
	})
	s.notify(ctx, []string{domain.PartnerRecipient(cancelled.PartnerID.String())}, "sale_cancelled", "Sale cancelled",
		"Sale "+cancelled.SaleID.String()+" was cancelled.", domain.EventSaleCancelled,
		map[string]string{"sale_id": cancelled.SaleID.String()})
	return cancelled, nil
}

func (s *Service) ListSales(ctx context.Context, actor Actor, input ListInput) ([]domain.Sale, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter := domain.SaleFilter{}
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
	from, err := parseOptionalTime("from", input.From)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalTime("to", input.To)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, fmt.Errorf("%w: to is before from", domain.ErrInvalidInput)
	}
	filter.From, filter.To = from, to
	filter.Limit, filter.Offset = s.page(input.Limit, input.Offset)
	return s.sales.List(ctx, filter)
}
