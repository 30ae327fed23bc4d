package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tidwall/gjson"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/observability"
)

// OrderHandler records sales for completed storefront orders.
type OrderHandler interface {
	HandleOrderCompleted(ctx context.Context, payload []byte) error
}

type ConsumerWorker struct {
	logger     *slog.Logger
	consumer   Consumer
	handler    OrderHandler
	interval   time.Duration
	batchSize  int
	attempts   uint
	retryDelay time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, handler OrderHandler, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger:     logger,
		consumer:   consumer,
		handler:    handler,
		interval:   interval,
		batchSize:  50,
		attempts:   3,
		retryDelay: 100 * time.Millisecond,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// processOnce handles one polled batch and commits every message that was handled or
// rejected. A message whose handler keeps failing stops the batch uncommitted.
func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, w.batchSize)
	if err != nil {
		return err
	}
	done := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		if err := w.dispatch(ctx, msg); err != nil {
			if commitErr := w.consumer.Commit(ctx, done...); commitErr != nil {
				return errors.Join(err, commitErr)
			}
			return fmt.Errorf("%s[%d]@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
		}
		done = append(done, msg)
	}
	return w.consumer.Commit(ctx, done...)
}

// dispatch routes on the envelope's event_type, falling back to the topic name.
func (w *ConsumerWorker) dispatch(ctx context.Context, msg Message) error {
	eventType := msg.Topic
	if gjson.ValidBytes(msg.Payload) {
		if v := gjson.GetBytes(msg.Payload, "event_type"); v.Exists() && v.String() != "" {
			eventType = v.String()
		}
	}
	if eventType != domain.EventOrderCompleted {
		observability.RecordEventConsumed(eventType, "ignored")
		return nil
	}

	err := retry.Do(
		func() error { return w.handler.HandleOrderCompleted(ctx, msg.Payload) },
		retry.Context(ctx),
		retry.Attempts(w.attempts),
		retry.Delay(w.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool { return !domain.IsPermanent(err) }),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return nil
	}
	outcome := "failure"
	if domain.IsPermanent(err) {
		outcome = "rejected"
	}
	w.logger.WarnContext(ctx, "failed to handle order.completed",
		"module", "events.consumer_worker",
		"layer", "adapter",
		"operation", "handle_order_completed",
		"outcome", outcome,
		"event_id", gjson.GetBytes(msg.Payload, "event_id").String(),
		"partner_id", gjson.GetBytes(msg.Payload, "data.partner_id").String(),
		"error", err,
	)
	if outcome == "rejected" {
		observability.RecordEventConsumed(eventType, outcome)
		return nil
	}
	return err
}
