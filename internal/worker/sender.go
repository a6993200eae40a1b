package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/emay"
	"github.com/jmehdipour/emay-gateway/internal/kafka"
	"github.com/jmehdipour/emay-gateway/internal/metrics"
	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmehdipour/emay-gateway/internal/repository"
	"github.com/jmehdipour/emay-gateway/internal/service/sms"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// CodeDecodeError marks a record whose SUCCESS reply from the gateway could not be decoded.
const CodeDecodeError = "DECODE_ERROR"

type Consumer interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

type Sender interface {
	Send(ctx context.Context, mobile, content, customSmsID string) (sms.SendResult, error)
}

// SenderKafka:
// - fetches queued envelopes from Kafka,
// - sends each through the gateway (no retries, a breaker pauses dispatch while the gateway is down),
// - batches record inserts and results into one MySQL transaction.
type SenderKafka struct {
	// Dependencies
	DB       *sqlx.DB // optional; without it each repository call runs its own tx
	Consumer Consumer
	Records  repository.RecordsRepository
	SMS      Sender
	Breaker  *Breaker
	Log      *zap.Logger

	// Behavior
	Workers   int           // number of goroutines processing messages
	BatchSize int           // max buffered updates per flush (items)
	BatchWait time.Duration // max time to wait before flush
}

// NewSenderKafka builds a worker with sane defaults.
func NewSenderKafka(
	db *sqlx.DB,
	consumer Consumer,
	records repository.RecordsRepository,
	sender Sender,
	breaker *Breaker,
	log *zap.Logger,
) *SenderKafka {
	return &SenderKafka{
		DB:        db,
		Consumer:  consumer,
		Records:   records,
		SMS:       sender,
		Breaker:   breaker,
		Log:       log,
		Workers:   16,
		BatchSize: 200,
		BatchWait: 300 * time.Millisecond,
	}
}

type updateItem struct {
	rec    model.Record
	result model.RecordResult
}

// Run starts the worker and blocks until ctx is cancelled and the last batch is flushed.
func (w *SenderKafka) Run(ctx context.Context) error {
	if w.Workers <= 0 {
		w.Workers = 16
	}
	if w.BatchSize <= 0 {
		w.BatchSize = 200
	}
	if w.BatchWait <= 0 {
		w.BatchWait = 300 * time.Millisecond
	}
	if w.Breaker == nil {
		w.Breaker = NewBreaker(0, 0)
	}
	if w.Log == nil {
		w.Log = zap.NewNop()
	}

	updates := make(chan updateItem, w.BatchSize*2)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		w.runBatchWriter(updates)
	}()

	msgCh := make(chan kafka.Message, w.Workers*2)

	go func() {
		defer close(msgCh)
		for {
			m, err := w.Consumer.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.Log.Warn("kafka fetch", zap.Error(err))
				time.Sleep(200 * time.Millisecond)
				continue
			}

			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < w.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				w.processOne(ctx, m, updates)
			}
		}()
	}

	wg.Wait()
	close(updates)
	<-writerDone

	return nil
}

func (w *SenderKafka) processOne(ctx context.Context, m kafka.Message, out chan<- updateItem) {
	var env model.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil || env.ID == "" || env.Mobile == "" {
		_ = w.Consumer.Commit(ctx, m) // poison → commit, skip
		w.Log.Warn("bad envelope", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}

	if !w.waitBreaker(ctx) {
		return
	}

	log := w.Log.With(zap.String("id", env.ID), zap.String("mobile", env.Mobile))

	res, err := w.SMS.Send(ctx, env.Mobile, env.Content, env.CustomSmsID)

	if err == nil && res.Code == emay.System && ctx.Err() != nil {
		// the call itself was aborted by shutdown; the uncommitted message is redelivered
		return
	}

	result := model.RecordResult{ID: env.ID, Status: model.StatusSent, SmsID: res.SmsID, Code: res.Code.String()}
	switch {
	case err != nil:
		// gateway said SUCCESS but the reply was unreadable; the send may have gone out,
		// so record it instead of resending
		w.Breaker.OnFailure()
		result = model.RecordResult{ID: env.ID, Status: model.StatusFailed, Code: CodeDecodeError}
		log.Error("send: broken gateway reply", zap.Error(err))
	case res.Code == emay.System:
		w.Breaker.OnFailure()
	default:
		w.Breaker.OnSuccess()
	}

	if err == nil && !res.Success {
		result.Status = model.StatusFailed
		log.Info("send rejected", zap.String("code", res.Code.String()))
	}

	out <- updateItem{
		rec: model.Record{
			ID:          env.ID,
			Mobile:      env.Mobile,
			Content:     env.Content,
			CustomSmsID: env.CustomSmsID,
			Mode:        model.ModeQueue,
			Status:      model.StatusQueued,
			Client:      "queue",
		},
		result: result,
	}

	// a real verdict is committed even during shutdown, otherwise it would be sent twice
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.Consumer.Commit(cctx, m); err != nil {
		log.Warn("kafka commit", zap.Error(err))
	}
}

// waitBreaker blocks while the breaker is open. It returns false when ctx ends first.
func (w *SenderKafka) waitBreaker(ctx context.Context) bool {
	for !w.Breaker.Allow() {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(250 * time.Millisecond):
		}
	}
	return true
}

// runBatchWriter does size/time-based flush of record rows and results in one transaction.
func (w *SenderKafka) runBatchWriter(in <-chan updateItem) {
	tick := time.NewTicker(w.BatchWait)
	defer tick.Stop()

	var pending []updateItem

	flush := func() {
		if len(pending) == 0 {
			return
		}

		recs := make([]model.Record, 0, len(pending))
		results := make([]model.RecordResult, 0, len(pending))
		sent := 0
		for _, it := range pending {
			recs = append(recs, it.rec)
			results = append(results, it.result)
			if it.result.Status == model.StatusSent {
				sent++
			}
		}

		// shutdown flush must not depend on the cancelled run context
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := w.store(ctx, recs, results); err != nil {
			w.Log.Error("flush records", zap.Int("items", len(pending)), zap.Error(err))
		} else {
			w.Log.Info("flushed", zap.Int("sent", sent), zap.Int("failed", len(pending)-sent))
		}

		metrics.MessagesTotal.WithLabelValues("sent", model.ModeQueue.String()).Add(float64(sent))
		metrics.MessagesTotal.WithLabelValues("failed", model.ModeQueue.String()).Add(float64(len(pending) - sent))

		pending = pending[:0]
	}

	for {
		select {
		case u, ok := <-in:
			if !ok {
				flush()
				return
			}
			pending = append(pending, u)
			if len(pending) >= w.BatchSize {
				flush()
			}

		case <-tick.C:
			flush()
		}
	}
}

func (w *SenderKafka) store(ctx context.Context, recs []model.Record, results []model.RecordResult) error {
	var tx *sqlx.Tx
	if w.DB != nil {
		var err error
		tx, err = w.DB.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
	}

	// 1) rows produced elsewhere already exist; this only fills gaps
	if err := w.Records.InsertBatch(ctx, tx, recs); err != nil {
		return err
	}

	// 2) gateway outcomes
	if err := w.Records.ApplyResults(ctx, tx, results); err != nil {
		return err
	}

	if tx != nil {
		return tx.Commit()
	}
	return nil
}
