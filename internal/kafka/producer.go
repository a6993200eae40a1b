package kafka

import (
	"context"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/config"
	"github.com/segmentio/kafka-go"
)

// Producer publishes queued sends. Messages are keyed by mobile so one
// recipient's messages stay ordered on a partition.
type Producer struct {
	w *kafka.Writer
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	wt := cfg.WriteTimeout
	if wt <= 0 {
		wt = 10 * time.Second
	}

	return &Producer{w: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           wt,
		AllowAutoTopicCreation: true,
	}}
}

func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	return p.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value})
}

func (p *Producer) Close() error { return p.w.Close() }
