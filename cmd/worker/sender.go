package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmehdipour/emay-gateway/internal/db"
	"github.com/jmehdipour/emay-gateway/internal/kafka"
	"github.com/jmehdipour/emay-gateway/internal/repository"
	"github.com/jmehdipour/emay-gateway/internal/service/sms"
	"github.com/jmehdipour/emay-gateway/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var senderCmd = &cobra.Command{
	Use:   "sender",
	Short: "Consume queued messages from Kafka and send them through the gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) config + logger
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		// 2) gateway
		smsSvc, _, err := sms.NewFromConfig(cfg, log)
		if err != nil {
			return err
		}

		// 3) MySQL
		dbx, err := db.NewMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer dbx.Close()

		// 4) kafka consumer
		consumer := kafka.NewConsumer(cfg.Kafka)
		defer consumer.Close()

		w := worker.NewSenderKafka(
			dbx,
			consumer,
			repository.NewRecordsRepository(dbx),
			smsSvc,
			worker.NewBreaker(cfg.Worker.Breaker.FailThreshold, cfg.Worker.Breaker.OpenFor),
			log.Named("sender"),
		)

		// tune knobs
		if cfg.Worker.Count > 0 {
			w.Workers = cfg.Worker.Count
		}
		if cfg.Worker.BatchSize > 0 {
			w.BatchSize = cfg.Worker.BatchSize
		}
		if cfg.Worker.BatchWait > 0 {
			w.BatchWait = cfg.Worker.BatchWait
		}

		// 5) graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("sender started",
			zap.String("topic", cfg.Kafka.Topic),
			zap.String("group", cfg.Kafka.GroupID),
			zap.Int("workers", w.Workers),
			zap.Int("batch_size", w.BatchSize),
			zap.Duration("batch_wait", w.BatchWait),
		)

		return w.Run(ctx)
	},
}
