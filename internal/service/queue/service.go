package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmehdipour/emay-gateway/internal/metrics"
	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmehdipour/emay-gateway/internal/repository"
	"github.com/jmehdipour/emay-gateway/internal/util"
)

// CodeQueueError marks a record whose envelope never reached Kafka.
const CodeQueueError = "QUEUE_ERROR"

var ErrPublish = errors.New("publish to queue failed")

type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Service records a queued send and hands it to the sender worker through Kafka.
type Service struct {
	records repository.RecordsRepository
	pub     Publisher
}

// New constructs the queue service.
func New(records repository.RecordsRepository, pub Publisher) *Service {
	return &Service{records: records, pub: pub}
}

// Enqueue generates a ULID, stores the record as queued and publishes the envelope.
// When customSmsID is empty the ULID is used so status reports can be matched back.
// Returns the generated record ID.
func (s *Service) Enqueue(ctx context.Context, client, mobile, content, customSmsID string) (string, error) {
	id := util.NewID()
	if customSmsID == "" {
		customSmsID = id
	}

	env := model.Envelope{
		ID:          id,
		Mobile:      mobile,
		Content:     content,
		CustomSmsID: customSmsID,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	rec := model.Record{
		ID:          id,
		Mobile:      mobile,
		Content:     content,
		CustomSmsID: customSmsID,
		Mode:        model.ModeQueue,
		Status:      model.StatusQueued,
		Client:      client,
	}
	if err := s.records.InsertBatch(ctx, nil, []model.Record{rec}); err != nil {
		return "", fmt.Errorf("insert record queued: %w", err)
	}

	if err := s.pub.Publish(ctx, mobile, payload); err != nil {
		// leave a trace instead of a record stuck in queued
		_ = s.records.ApplyResults(ctx, nil, []model.RecordResult{{ID: id, Status: model.StatusFailed, Code: CodeQueueError}})
		return "", fmt.Errorf("%w: %v", ErrPublish, err)
	}

	metrics.MessagesTotal.WithLabelValues("queued", model.ModeQueue.String()).Inc()

	return id, nil
}
