package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmehdipour/emay-gateway/internal/db"
	"github.com/jmehdipour/emay-gateway/internal/repository"
	"github.com/jmehdipour/emay-gateway/internal/service/sms"
	"github.com/jmehdipour/emay-gateway/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportsOnce bool

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Pull status reports and inbound messages into ClickHouse and MySQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		smsSvc, _, err := sms.NewFromConfig(cfg, log)
		if err != nil {
			return err
		}

		mysqlDB, err := db.NewMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer mysqlDB.Close()

		chDB, err := db.NewClickHouse(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer chDB.Close()

		p := worker.NewReportPuller(
			smsSvc,
			repository.NewRecordsRepository(mysqlDB),
			repository.NewReportsRepository(chDB),
			log.Named("reports"),
			cfg.Worker.PollInterval,
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if reportsOnce {
			return p.PullOnce(ctx)
		}

		log.Info("report puller started", zap.Duration("interval", p.Interval))
		return p.Run(ctx)
	},
}

func init() {
	reportsCmd.Flags().BoolVar(&reportsOnce, "once", false, "pull once and exit")
}
