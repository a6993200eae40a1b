package cmd

import (
	"fmt"

	"github.com/jmehdipour/emay-gateway/internal/db"
	"github.com/jmehdipour/emay-gateway/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateSkipClickHouse bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the MySQL records table and the ClickHouse report archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		mysqlScripts, err := migrations.MySQL()
		if err != nil {
			return fmt.Errorf("read mysql migrations: %w", err)
		}

		sqlDB, err := db.NewMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer sqlDB.Close()

		for i, s := range mysqlScripts {
			if _, err := sqlDB.Exec(s); err != nil {
				return fmt.Errorf("exec mysql migration %d: %w", i+1, err)
			}
		}
		log.Info("mysql migrated", zap.Int("scripts", len(mysqlScripts)))

		if migrateSkipClickHouse {
			return nil
		}

		stmts, err := migrations.ClickHouse()
		if err != nil {
			return fmt.Errorf("read clickhouse migrations: %w", err)
		}

		chDB, err := db.NewClickHouse(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer chDB.Close()

		for i, s := range stmts {
			if _, err := chDB.Exec(s); err != nil {
				return fmt.Errorf("exec clickhouse statement %d: %w", i+1, err)
			}
		}
		log.Info("clickhouse migrated", zap.Int("statements", len(stmts)))

		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSkipClickHouse, "skip-clickhouse", false, "only migrate MySQL")
}
