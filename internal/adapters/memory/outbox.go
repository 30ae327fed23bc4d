package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/ports"
)

type OutboxRepository struct{ st *store }

func (r *OutboxRepository) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.outbox[event.EventID]; ok {
		return domain.ErrConflict
	}
	r.st.outbox[event.EventID] = ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      append([]byte(nil), event.Payload...),
		FirstSeenAt:  event.OccurredAt,
	}
	r.st.outboxOrder = append(r.st.outboxOrder, event.EventID)
	return nil
}

func (r *OutboxRepository) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]ports.OutboxRecord, 0, limit)
	for _, id := range r.st.outboxOrder {
		rec := r.st.outbox[id]
		if rec.PublishedAt != nil {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID uuid.UUID, at time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	rec, ok := r.st.outbox[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	published := at
	rec.PublishedAt = &published
	r.st.outbox[outboxID] = rec
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	rec, ok := r.st.outbox[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	msg, failedAt := errMsg, at
	rec.RetryCount++
	rec.LastError = &msg
	rec.LastErrorAt = &failedAt
	r.st.outbox[outboxID] = rec
	return nil
}

// Published returns the records already handed to the publisher, oldest first.
func (r *OutboxRepository) Published() []ports.OutboxRecord {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]ports.OutboxRecord, 0)
	for _, id := range r.st.outboxOrder {
		if rec := r.st.outbox[id]; rec.PublishedAt != nil {
			out = append(out, rec)
		}
	}
	return out
}

type IdempotencyRepository struct{ st *store }

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	rec, ok := r.st.idempotency[key]
	if !ok {
		return nil, nil
	}
	if !rec.ExpiresAt.IsZero() && now.After(rec.ExpiresAt) {
		delete(r.st.idempotency, key)
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if existing, ok := r.st.idempotency[key]; ok {
		if existing.RequestHash == requestHash {
			return nil
		}
		return domain.ErrIdempotencyConflict
	}
	r.st.idempotency[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      ports.IdempotencyPending,
		ExpiresAt:   expiresAt,
	}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	rec, ok := r.st.idempotency[key]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = ports.IdempotencyCompleted
	rec.ResponseCode = responseCode
	rec.ResponseBody = append([]byte(nil), responseBody...)
	r.st.idempotency[key] = rec
	return nil
}

func (r *IdempotencyRepository) Release(_ context.Context, key string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if rec, ok := r.st.idempotency[key]; ok && rec.Status == ports.IdempotencyPending {
		delete(r.st.idempotency, key)
	}
	return nil
}

type dedupRow struct {
	eventType string
	expiresAt time.Time
}

type EventDedupRepository struct{ st *store }

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.dedup[eventID]
	if !ok {
		return false, nil
	}
	if now.After(row.expiresAt) {
		delete(r.st.dedup, eventID)
		return false, nil
	}
	return true, nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, eventType string, expiresAt time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.dedup[eventID] = dedupRow{eventType: eventType, expiresAt: expiresAt}
	return nil
}
