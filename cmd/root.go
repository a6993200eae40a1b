package cmd

import (
	"fmt"
	"os"

	"github.com/jmehdipour/emay-gateway/cmd/worker"
	"github.com/jmehdipour/emay-gateway/internal/config"
	"github.com/jmehdipour/emay-gateway/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:   "emay-gateway",
		Short: "Emay SMS gateway client and relay",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(gatewayCmds()...)
	rootCmd.AddCommand(worker.NewWorkerCmd())
}

// setup loads config and initializes the global logger.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, logger.Init(cfg.Log.Level, cfg.Log.Encoding), nil
}
