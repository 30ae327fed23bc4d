package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/ports"
)

func (s *Service) enqueueEvent(ctx context.Context, actor Actor, eventType, partitionKey string, data any) error {
	occurredAt := s.nowFn()
	eventID := uuid.New()
	envelope := map[string]any{
		"event_id":           eventID.String(),
		"event_type":         eventType,
		"occurred_at":        occurredAt.Format(time.RFC3339),
		"source_service":     s.cfg.ServiceName,
		"trace_id":           actor.RequestID,
		"schema_version":     domain.EventSchemaVersion,
		"partition_key_path": domain.DefaultPartitionKeyPath,
		"partition_key":      partitionKey,
		"data":               data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:          eventID,
		EventType:        eventType,
		PartitionKey:     partitionKey,
		PartitionKeyPath: domain.DefaultPartitionKeyPath,
		Payload:          payload,
		OccurredAt:       occurredAt,
		SchemaVersion:    domain.EventSchemaVersion,
		TraceID:          actor.RequestID,
	})
}

func (s *Service) notify(ctx context.Context, recipients []string, kind, title, body, sourceEvent string, metadata map[string]string) {
	if s.notifications == nil {
		return
	}
	now := s.nowFn()
	seen := map[string]struct{}{}
	items := make([]domain.Notification, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		items = append(items, domain.Notification{
			NotificationID:  uuid.New(),
			RecipientID:     r,
			Type:            kind,
			Title:           title,
			Body:            body,
			Metadata:        metadata,
			SourceEventType: sourceEvent,
			CreatedAt:       now,
		})
	}
	if len(items) == 0 {
		return
	}
	_ = s.notifications.CreateBatch(ctx, items)
}

func hashRequest(v any) string {
	raw, _ := json.Marshal(v)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func idempotencyScope(actor Actor, operation string) string {
	key := strings.TrimSpace(actor.IdempotencyKey)
	if key == "" {
		return ""
	}
	return strings.TrimSpace(actor.SubjectID) + ":" + operation + ":" + key
}

// withIdempotency replays the stored response for a repeated key and records the
// response of a first execution. A key reused with a different request body is a
// conflict.
func withIdempotency[T any](ctx context.Context, s *Service, key string, request any, fn func() (T, error)) (T, error) {
	var zero T
	if s.idempotency == nil || key == "" {
		return fn()
	}
	hash := hashRequest(request)
	rec, err := s.idempotency.Get(ctx, key, s.nowFn())
	if err != nil {
		return zero, err
	}
	if rec != nil {
		if rec.RequestHash != hash {
			return zero, domain.ErrIdempotencyConflict
		}
		if rec.Status != ports.IdempotencyCompleted {
			return zero, fmt.Errorf("%w: request is still being processed", domain.ErrIdempotencyConflict)
		}
		var out T
		if err := json.Unmarshal(rec.ResponseBody, &out); err != nil {
			return zero, err
		}
		return out, nil
	}
	if err := s.idempotency.Reserve(ctx, key, hash, s.nowFn().Add(s.cfg.IdempotencyTTL)); err != nil {
		return zero, err
	}
	out, err := fn()
	if err != nil {
		_ = s.idempotency.Release(ctx, key)
		return zero, err
	}
	raw, _ := json.Marshal(out)
	_ = s.idempotency.Complete(ctx, key, 200, raw, s.nowFn())
	return out, nil
}

func (s *Service) page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseOptionalTime(field, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		if d, dErr := time.Parse("2006-01-02", v); dErr == nil {
			t = d
		} else {
			return nil, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", domain.ErrInvalidInput, field)
		}
	}
	t = t.UTC()
	return &t, nil
}
