package storage

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/nel3/internal/config"
	obslogger "github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("storage",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

// New opens the backend selected by STORAGE_DRIVER.
func New(p Params) (KV, error) {
	log := p.Log.Named("storage")
	kv, err := open(context.Background(), p.Config, log)
	if err != nil {
		return nil, err
	}
	log.Info("storage backend ready", zap.String("backend", kv.Name()))

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return kv.Close()
		},
	})
	return kv, nil
}

func open(ctx context.Context, cfg config.Config, log *zap.Logger) (KV, error) {
	switch cfg.StorageDriver {
	case "memory":
		return NewMemory(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedis(client, cfg.AppName), nil
	case "sqlite", "postgres", "mysql":
		dbCfg := db.FromAppConfig(cfg)
		dialector, err := db.Dialect(dbCfg)
		if err != nil {
			return nil, err
		}
		conn, err := db.Open(dbCfg, dialector, obslogger.NewGormLogger(log, obslogger.DefaultGormLoggerConfig()))
		if err != nil {
			return nil, err
		}
		if err := db.InstrumentPool(conn, dbCfg.Name); err != nil {
			return nil, err
		}
		return NewSQL(ctx, conn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
