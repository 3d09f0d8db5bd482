package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/agentflow"
	"github.com/meikuraledutech/agentflow/config"
	"github.com/meikuraledutech/agentflow/postgres"
	"github.com/meikuraledutech/agentflow/redis"
	"github.com/meikuraledutech/agentflow/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference agent-flow backend",
	Long:  `Serves /api/v2/agent-flows over PostgreSQL or Redis, plus /healthz and /metrics.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("store") {
			cfg.Server.Store, _ = cmd.Flags().GetString("store")
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := newLogger(cfg)
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.CreateSchema(ctx); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}

		app := server.New(store,
			server.WithLogger(logger),
			server.WithDefaultLimit(cfg.Server.DefaultLimit),
		)

		logger.Info("agentflow server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("store", cfg.Server.Store),
		)
		err = app.Listen(cfg.Server.Addr, fiber.ListenConfig{
			GracefulContext:       ctx,
			ShutdownTimeout:       5 * time.Second,
			DisableStartupMessage: true,
		})
		logger.Info("agentflow server stopped")
		return err
	},
}

func openStore(ctx context.Context, cfg *config.Config) (agentflow.Store, func(), error) {
	switch cfg.Server.Store {
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, nil, fmt.Errorf("database url is not set (AGENTFLOW_DATABASE_URL or DATABASE_URL)")
		}
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		return postgres.New(pool), pool.Close, nil
	default:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithPrefix(cfg.Redis.Prefix))
		return store, func() { _ = store.Close() }, nil
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("store", "", "Storage backend: postgres or redis")
	serveCmd.Flags().String("addr", "", "Listen address, e.g. :8000")
}
