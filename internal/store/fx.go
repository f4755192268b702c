package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/nel3/internal/clock"
	"github.com/smallbiznis/nel3/internal/config"
	"github.com/smallbiznis/nel3/internal/observability/metrics"
	"github.com/smallbiznis/nel3/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("store",
	fx.Provide(NewNode),
	fx.Provide(LoadLocation),
	fx.Provide(New),
)

func NewNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

// LoadLocation resolves the business timezone used for ledger buckets.
func LoadLocation(cfg config.Config) (*time.Location, error) {
	if cfg.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	return loc, nil
}

type Params struct {
	fx.In

	Config   config.Config
	KV       storage.KV
	Clock    clock.Clock
	Node     *snowflake.Node
	Location *time.Location
	Log      *zap.Logger
	Metrics  *metrics.StoreMetrics `optional:"true"`
}

func New(p Params) (*Store, error) {
	return Open(context.Background(), Config{
		KV:       p.KV,
		Key:      p.Config.SnapshotKey,
		Clock:    p.Clock,
		Node:     p.Node,
		Location: p.Location,
		Log:      p.Log,
		Metrics:  p.Metrics,
		Seed:     p.Config.SeedOnEmpty,
	})
}
