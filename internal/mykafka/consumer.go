package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type Handler func(ctx context.Context, env Envelope) error

type Consumer struct {
	reader *kafka.Reader
	log    *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		log: log.With("topic", topic, "group", groupID),
	}
}

// Run blocks until ctx is cancelled. Handler errors are logged and the
// message is still committed: the engine never retries side effects.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var env Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			c.log.Error("malformed event", "offset", m.Offset, "error", err)
			continue
		}

		if err := handle(ctx, env); err != nil {
			c.log.Error("event handling failed", "event_type", env.EventType, "event_id", env.EventID, "error", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
