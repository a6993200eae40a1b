package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/emay-gateway/internal/db"
	httpSrv "github.com/jmehdipour/emay-gateway/internal/http"
	"github.com/jmehdipour/emay-gateway/internal/kafka"
	"github.com/jmehdipour/emay-gateway/internal/metrics"
	"github.com/jmehdipour/emay-gateway/internal/repository"
	"github.com/jmehdipour/emay-gateway/internal/service/queue"
	"github.com/jmehdipour/emay-gateway/internal/service/sms"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		metrics.MustRegister(prometheus.DefaultRegisterer)

		smsSvc, _, err := sms.NewFromConfig(cfg, log)
		if err != nil {
			return err
		}

		mysqlDB, err := db.NewMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer mysqlDB.Close()

		redisClient, err := db.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		chDB, err := db.NewClickHouse(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer func() {
			_ = chDB.Close()
		}()

		producer := kafka.NewProducer(cfg.Kafka)
		defer func() { _ = producer.Close() }()

		recordsRepo := repository.NewRecordsRepository(mysqlDB)

		server := httpSrv.NewServer(cfg, httpSrv.Deps{
			SMS:     smsSvc,
			Queue:   queue.New(recordsRepo, producer),
			Records: recordsRepo,
			Reports: repository.NewReportsRepository(chDB),
			Redis:   redisClient,
			Log:     log,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server exited", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
