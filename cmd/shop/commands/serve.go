package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopping_app/internal/cache"
	"github.com/Skotchmaster/shopping_app/internal/config"
	"github.com/Skotchmaster/shopping_app/internal/events"
	"github.com/Skotchmaster/shopping_app/internal/httpserver"
	"github.com/Skotchmaster/shopping_app/internal/middleware/auth"
	"github.com/Skotchmaster/shopping_app/internal/repo"
	"github.com/Skotchmaster/shopping_app/internal/search"
	"github.com/Skotchmaster/shopping_app/internal/service"
	"github.com/Skotchmaster/shopping_app/internal/session"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		return serve(cmd.Context(), cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, closeDB, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Migrate(db); err != nil {
		return err
	}
	r := repo.New(db)

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		publisher = producer
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	catalog := &service.CatalogService{Repo: r, Events: publisher}

	if cfg.ESURL != "" {
		idx, err := search.NewClient(search.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			catalog.Index = idx
			logger.Info("search_enabled", "index", cfg.ESIndex)
		}
	}

	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisProducts(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			logger.Warn("cache_disabled", "reason", "redis unavailable", "error", err)
		} else {
			defer rc.Close()
			catalog.Cache = rc
			logger.Info("cache_enabled", "addr", cfg.RedisAddr)
		}
	}

	if cfg.SeedOnStart {
		n, err := catalog.SeedIfEmpty(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("seed_success", "inserted", n)
		}
	}
	if catalog.Index != nil {
		if err := catalog.Reindex(ctx); err != nil {
			logger.Warn("reindex_error", "error", err)
		}
	}

	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)
	deps := &httpserver.Deps{
		Users:   &httpserver.UserHTTP{Svc: &service.UserService{Repo: r, Events: publisher}, Sessions: sessions},
		Catalog: &httpserver.CatalogHTTP{Svc: catalog},
		Cart:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Events: publisher}},
		Dev:     &httpserver.DevHTTP{Svc: catalog, Enabled: cfg.IsDevelopment()},
		Gate:    &auth.Gate{Sessions: sessions, Users: r},
		Ready:   pinger(db),
	}
	e := httpserver.New(deps, httpserver.Options{
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		CSRF:         cfg.CSRFEnabled,
		CookieSecure: cfg.CookieSecure,
	})

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_start", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("echo start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("echo shutdown: %w", err)
	}
	logger.Info("server_stopped")
	return nil
}

func pinger(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
