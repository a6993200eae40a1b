package worker

import (
	"fmt"

	"github.com/jmehdipour/emay-gateway/internal/config"
	"github.com/jmehdipour/emay-gateway/internal/logger"
	"github.com/jmehdipour/emay-gateway/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewWorkerCmd returns the parent "worker" command.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background workers",
	}
	// attach subcommands
	cmd.AddCommand(senderCmd)
	cmd.AddCommand(reportsCmd)

	return cmd
}

func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	return cfg, logger.Init(cfg.Log.Level, cfg.Log.Encoding), nil
}
