package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message is one inbound record. Offset bookkeeping stays with the consumer that
// produced it.
type Message struct {
	Topic     string
	Key       []byte
	Payload   []byte
	Partition int
	Offset    int64

	raw kafka.Message
}

// Consumer delivers at least once: a message stays uncommitted until Commit is called
// for it, and uncommitted messages come back after a restart or a group rebalance.
type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
	Commit(ctx context.Context, msgs ...Message) error
}

type fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConsumer struct {
	reader      fetcher
	pollTimeout time.Duration
}

func NewKafkaConsumer(brokers []string, groupID string, topics []string) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	if groupID == "" {
		return nil, fmt.Errorf("kafka consumer requires group id")
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one topic")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.FirstOffset,
	})
	return &KafkaConsumer{reader: reader, pollTimeout: 250 * time.Millisecond}, nil
}

// Poll returns up to max fetched messages, or fewer once the broker has nothing ready
// within the poll timeout.
func (c *KafkaConsumer) Poll(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	out := make([]Message, 0, max)
	for len(out) < max {
		fetchCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return out, nil
			}
			return out, err
		}
		out = append(out, Message{
			Topic:     msg.Topic,
			Key:       msg.Key,
			Payload:   msg.Value,
			Partition: msg.Partition,
			Offset:    msg.Offset,
			raw:       msg,
		})
	}
	return out, nil
}

func (c *KafkaConsumer) Commit(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	raws := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		raws = append(raws, m.raw)
	}
	if err := c.reader.CommitMessages(ctx, raws...); err != nil {
		return fmt.Errorf("commit %d message(s): %w", len(raws), err)
	}
	return nil
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// NoopConsumer is used when no brokers are configured.
type NoopConsumer struct{}

func NewNoopConsumer() *NoopConsumer {
	return &NoopConsumer{}
}

func (n *NoopConsumer) Poll(context.Context, int) ([]Message, error) { return nil, nil }

func (n *NoopConsumer) Commit(context.Context, ...Message) error { return nil }
