package kafka

import (
	"context"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/config"
	"github.com/segmentio/kafka-go"
)

type Message = kafka.Message

// Consumer reads the outbound SMS topic with explicit commits.
type Consumer struct {
	r *kafka.Reader
}

func NewConsumer(cfg config.KafkaConfig) *Consumer {
	minBytes := cfg.MinBytes
	if minBytes <= 0 {
		minBytes = 1 << 10 // 1KB
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20 // 10MB
	}
	ci := cfg.CommitInterval
	if ci <= 0 {
		ci = time.Second
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		CommitInterval: ci,
		MaxWait:        50 * time.Millisecond,
	})

	return &Consumer{r: r}
}

func (c *Consumer) Fetch(ctx context.Context) (Message, error) {
	return c.r.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, m Message) error {
	return c.r.CommitMessages(ctx, m)
}

func (c *Consumer) Close() error { return c.r.Close() }
