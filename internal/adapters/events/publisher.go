package events

import (
	"context"
	"log/slog"

	"github.com/tidwall/gjson"
	"github.com/viralforge/partner-portal/internal/ports"
)

// LoggingPublisher writes outbox events to the log instead of a broker, so local runs
// without Kafka still drain the outbox.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	envelope := gjson.GetManyBytes(payload, "event_id", "schema_version", "trace_id")
	p.logger.InfoContext(ctx, "event published to log",
		"module", "events.publisher",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "logged",
		"event_type", eventType,
		"event_id", envelope[0].String(),
		"schema_version", envelope[1].String(),
		"trace_id", envelope[2].String(),
		"partition_key", partitionKey,
		"payload_bytes", len(payload),
	)
	return nil
}

var (
	_ ports.EventPublisher = (*LoggingPublisher)(nil)
	_ ports.EventPublisher = (*KafkaPublisher)(nil)
	_ Consumer             = (*KafkaConsumer)(nil)
	_ Consumer             = (*NoopConsumer)(nil)
)
