package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/observability"
)

type orderCompletedEvent struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	TraceID   string `json:"trace_id"`
	Data      struct {
		OrderID      string     `json:"order_id"`
		PartnerID    string     `json:"partner_id"`
		KitID        string     `json:"kit_id"`
		LeadID       string     `json:"lead_id"`
		ParentSaleID string     `json:"parent_sale_id"`
		Kind         string     `json:"kind"`
		Amount       float64    `json:"amount"`
		Currency     string     `json:"currency"`
		CompletedAt  *time.Time `json:"completed_at"`
	} `json:"data"`
}

// HandleOrderCompleted records the sale behind an order completed in the storefront.
// Events that can never succeed are marked processed so they are not retried.
func (s *Service) HandleOrderCompleted(ctx context.Context, payload []byte) error {
	var evt orderCompletedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: invalid order.completed payload", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(evt.EventID) == "" {
		return fmt.Errorf("%w: event_id is required", domain.ErrInvalidInput)
	}
	if evt.EventType != "" && evt.EventType != domain.EventOrderCompleted {
		return domain.ErrUnsupportedEventType
	}
	dup, err := s.eventDedup.IsDuplicate(ctx, evt.EventID, s.nowFn())
	if err != nil {
		return err
	}
	if dup {
		observability.RecordEventConsumed(domain.EventOrderCompleted, "duplicate")
		return nil
	}

	actor := Actor{SubjectID: s.cfg.ServiceName, Role: RoleSystem, RequestID: evt.TraceID}
	partnerID, err := parseID("partner_id", evt.Data.PartnerID)
	if err == nil {
		_, err = s.recordSale(ctx, actor, partnerID, RecordSaleInput{
			KitID:        evt.Data.KitID,
			LeadID:       evt.Data.LeadID,
			ParentSaleID: evt.Data.ParentSaleID,
			OrderRef:     evt.Data.OrderID,
			Amount:       evt.Data.Amount,
			Currency:     evt.Data.Currency,
			Kind:         evt.Data.Kind,
			SoldAt:       evt.Data.CompletedAt,
		}, "event")
	}
	if err != nil && !domain.IsPermanent(err) {
		observability.RecordEventConsumed(domain.EventOrderCompleted, "retry")
		return err
	}
	_ = s.eventDedup.MarkProcessed(ctx, evt.EventID, domain.EventOrderCompleted, s.nowFn().Add(s.cfg.EventDedupTTL))
	if err != nil {
		return err
	}
	observability.RecordEventConsumed(domain.EventOrderCompleted, "processed")
	return nil
}
