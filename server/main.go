package main

import (
	"context"
	"flag"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/api"
	"github.com/meikuraledutech/workflow/config"
	"github.com/meikuraledutech/workflow/logger"
	"github.com/meikuraledutech/workflow/postgres"
	"github.com/meikuraledutech/workflow/redisstore"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("WORKFLOW_CONFIG"), "path to YAML config file")
	flag.Parse()

	boot, err := logger.New(config.Default().Log)
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal("load config", zap.Error(err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		boot.Fatal("build logger", zap.Error(err))
	}
	defer log.Sync()

	ctx := context.Background()
	store, closeStore := openStore(ctx, cfg.Store, log)
	defer closeStore()

	if store != nil {
		if err := store.CreateSchema(ctx); err != nil {
			log.Fatal("create schema", zap.Error(err))
		}
	}

	app := api.New(api.Options{Store: store, Logger: log, IDs: workflow.NodeIDs})

	log.Info("listening", zap.String("addr", cfg.Address()), zap.String("store", cfg.Store.Type))
	if err := app.Listen(cfg.Address()); err != nil {
		log.Fatal("listen", zap.Error(err))
	}
}

// openStore connects the configured backend. A nil store disables the
// /workflows routes.
func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (workflow.Store, func()) {
	switch cfg.Type {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("connect postgres", zap.Error(err))
		}
		if err := pool.Ping(ctx); err != nil {
			log.Fatal("ping postgres", zap.Error(err))
		}
		return postgres.New(pool), pool.Close

	case config.StoreRedis:
		rs, err := redisstore.Open(ctx, cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			log.Fatal("connect redis", zap.Error(err))
		}
		return rs, func() { _ = rs.Close() }

	default:
		log.Warn("no store configured, workflow persistence disabled")
		return nil, func() {}
	}
}
