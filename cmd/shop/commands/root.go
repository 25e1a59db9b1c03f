package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopping_app/internal/config"
	"github.com/Skotchmaster/shopping_app/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "shop",
	Short: "Shopping app backend",
	Long: `REST backend for the shopping app: catalog, cart and cookie sessions.

Configuration is read from .env and the environment (DATABASE_URL,
SESSION_SECRET, APP_ENV, KAFKA_BROKERS, ES_URL, REDIS_ADDR, ...).

Examples:
  shop serve            # run the HTTP API
  shop migrate          # create or update tables
  shop seed --force     # replace the catalog with the demo products`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
}

func loadConfig() (config.Config, *slog.Logger) {
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.Env)
	slog.SetDefault(logger)
	return cfg, logger
}

func openDB(ctx context.Context, cfg config.Config) (*gorm.DB, func(), error) {
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := config.OpenDB(initCtx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeDB, nil
}
